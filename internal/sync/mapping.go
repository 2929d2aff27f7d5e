package sync

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mamacare/engine/pkg/db/models"
	dbtypes "github.com/mamacare/engine/pkg/db/types"
	"github.com/mamacare/engine/pkg/enums"
)

// documentFromUser projects the shareable user fields into remote form.
// Credential hashes and local bookkeeping never leave the device.
func documentFromUser(user *models.User) map[string]any {
	data := map[string]any{
		"email":       strings.ToLower(user.Email),
		"name":        user.Name,
		"verified":    user.Verified,
		"role":        string(user.Role),
		"permissions": []string(user.Permissions),
	}
	if user.Phone != nil {
		data["phone"] = *user.Phone
	}
	if user.ProfileImage != nil {
		data["profileImage"] = *user.ProfileImage
	}
	return data
}

// applyDocument copies remote fields onto a local row. Local-only columns
// (credential hash, created_at, session state) are left untouched.
func applyDocument(user *models.User, doc Document) {
	if email, ok := doc.Data["email"].(string); ok && email != "" {
		user.Email = strings.ToLower(email)
	}
	if name, ok := doc.Data["name"].(string); ok && name != "" {
		user.Name = name
	}
	if phone, ok := doc.Data["phone"].(string); ok && phone != "" {
		user.Phone = &phone
	}
	if image, ok := doc.Data["profileImage"].(string); ok && image != "" {
		user.ProfileImage = &image
	}
	if verified, ok := doc.Data["verified"].(bool); ok {
		user.Verified = verified
	}
	if role, ok := doc.Data["role"].(string); ok && role != "" {
		user.Role = enums.ParseRole(role)
	}
	if perms := stringSlice(doc.Data["permissions"]); perms != nil {
		user.Permissions = perms
	}
}

// userFromDocument builds a brand-new local row for a remote document that
// matched nothing locally. Permission defaults are derived from the resolved
// role, so a document carrying a role but no permissions gets that role's
// canonical set, not the patient one.
func userFromDocument(doc Document, now time.Time) *models.User {
	remoteID := doc.ID
	user := &models.User{
		ID:           uuid.NewString(),
		RemoteID:     &remoteID,
		Role:         enums.RolePatient,
		SyncStatus:   enums.SyncStatusSynced,
		LastSyncedAt: &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	applyDocument(user, doc)
	if len(user.Permissions) == 0 {
		user.Permissions = dbtypes.StringList(enums.DefaultPermissions(user.Role))
	}
	return user
}

// stringSlice tolerates both []string and the []any form JSON decoding and
// document SDKs produce.
func stringSlice(value any) dbtypes.StringList {
	switch typed := value.(type) {
	case []string:
		return dbtypes.StringList(typed)
	case []any:
		out := make(dbtypes.StringList, 0, len(typed))
		for _, item := range typed {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
