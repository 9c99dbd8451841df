package review

import (
	"time"

	"github.com/sharath018/campus-events-backend/internal/auth"
)

const MaxCommentLength = 500

type Review struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;uniqueIndex:idx_reviews_user_event" json:"userId"`
	EventID   uint       `gorm:"not null;uniqueIndex:idx_reviews_user_event;index" json:"eventId"`
	Rating    int        `gorm:"not null;check:rating BETWEEN 1 AND 5" json:"rating"`
	Comment   *string    `gorm:"size:500" json:"comment,omitempty"`
	User      *auth.User `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (Review) TableName() string { return "reviews" }

// ReviewResponse exposes only the reviewer's name.
type ReviewResponse struct {
	ID        uint      `json:"id"`
	EventID   uint      `json:"eventId"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	UserName  string    `json:"userName"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r Review) Response() ReviewResponse {
	out := ReviewResponse{ID: r.ID, EventID: r.EventID, Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt}
	if r.User != nil {
		out.UserName = r.User.FullName
	}
	return out
}

type AddReviewInput struct {
	Rating  int     `json:"rating" binding:"required,min=1,max=5"`
	Comment *string `json:"comment" binding:"omitempty,max=500"`
}
