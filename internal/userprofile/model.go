package userprofile

import (
	"github.com/sharath018/campus-events-backend/internal/auth"
)

// Profile field names as they appear in request bodies.
const (
	FieldFullName         = "fullName"
	FieldUniversity       = "university"
	FieldRepresents       = "represents"
	FieldOrganizationName = "organizationName"
)

// AllowedProfileFields lists what each role may edit about itself. Affiliation
// fields that drive event permissions are writable only where the role owns them.
var AllowedProfileFields = map[string][]string{
	auth.RoleSimpleUser: {FieldFullName},
	auth.RoleStudent:    {FieldFullName, FieldUniversity},
	auth.RoleStudentRep: {FieldFullName, FieldUniversity, FieldRepresents},
	auth.RoleOrganizer:  {FieldFullName, FieldOrganizationName},
	auth.RoleAdmin:      {FieldFullName},
}

// columns maps request field names to users table columns.
var columns = map[string]string{
	FieldFullName:         "full_name",
	FieldUniversity:       "university",
	FieldRepresents:       "represents",
	FieldOrganizationName: "organization_name",
}

type ProfileInput struct {
	FullName         *string `json:"fullName" binding:"omitempty,min=2,max=30"`
	University       *string `json:"university" binding:"omitempty,min=2,max=255"`
	Represents       *string `json:"represents" binding:"omitempty,min=1,max=255"`
	OrganizationName *string `json:"organizationName" binding:"omitempty,min=1,max=255"`
}

// Patch returns only the fields present in the request.
func (in ProfileInput) Patch() map[string]any {
	patch := map[string]any{}
	for name, v := range map[string]*string{
		FieldFullName:         in.FullName,
		FieldUniversity:       in.University,
		FieldRepresents:       in.Represents,
		FieldOrganizationName: in.OrganizationName,
	} {
		if v != nil {
			patch[name] = *v
		}
	}
	return patch
}

type PreferencesInput struct {
	NotifyEventUpdated  *bool `json:"notifyEventUpdated"`
	NotifyEventReminder *bool `json:"notifyEventReminder"`
	EmailEventUpdated   *bool `json:"emailEventUpdated"`
	EmailEventReminder  *bool `json:"emailEventReminder"`
}

func (in PreferencesInput) columns() map[string]interface{} {
	out := map[string]interface{}{}
	for col, v := range map[string]*bool{
		"pref_notify_event_updated":  in.NotifyEventUpdated,
		"pref_notify_event_reminder": in.NotifyEventReminder,
		"pref_email_event_updated":   in.EmailEventUpdated,
		"pref_email_event_reminder":  in.EmailEventReminder,
	} {
		if v != nil {
			out[col] = *v
		}
	}
	return out
}
