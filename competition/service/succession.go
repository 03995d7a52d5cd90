// competition/service/succession.go
package service

import "github.com/Tokioace/N64-Nexus-sub006/shared/models"

// SuccessionPolicy picks the member who becomes captain when departingID leaves.
// It returns false when nobody else remains.
type SuccessionPolicy func(members []models.Member, departingID string) (string, bool)

// NextCaptain is the default policy: the remaining member who joined first.
// Equal join times fall back to list order.
func NextCaptain(members []models.Member, departingID string) (string, bool) {
	var (
		next  models.Member
		found bool
	)
	for _, m := range members {
		if m.UserID == departingID {
			continue
		}
		if !found || m.JoinedAt.Before(next.JoinedAt) {
			next, found = m, true
		}
	}
	return next.UserID, found
}
