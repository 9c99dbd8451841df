package attachment

import "time"

type FileType string

const (
	FileTypeImage    FileType = "IMAGE"
	FileTypeDocument FileType = "DOCUMENT"
)

// Attachment is one file linked to an event. Stored inline on the event row as JSON.
type Attachment struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Name       string    `json:"name"`
	FileType   FileType  `json:"fileType"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Upload describes a file already written to storage but not yet attached to anything.
type Upload struct {
	StoredName   string
	OriginalName string
	ContentType  string
	Size         int64
}

// StoredNames lists the storage keys of uploads, used for rollback.
func StoredNames(uploads []Upload) []string {
	names := make([]string, 0, len(uploads))
	for _, u := range uploads {
		names = append(names, u.StoredName)
	}
	return names
}

// URLs lists attachment urls.
func URLs(list []Attachment) []string {
	urls := make([]string, 0, len(list))
	for _, a := range list {
		urls = append(urls, a.URL)
	}
	return urls
}
