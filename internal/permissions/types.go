package permissions

import "strings"

// Flag names one granular publisher permission. Owner and Admin roles
// hold every flag implicitly; flags only matter for Member roles.
type Flag string

const (
	FlagModpackView                   Flag = "modpack_view"
	FlagModpackModify                 Flag = "modpack_modify"
	FlagModpackManageVersions         Flag = "modpack_manage_versions"
	FlagModpackPublish                Flag = "modpack_publish"
	FlagModpackDelete                 Flag = "modpack_delete"
	FlagModpackManageAccess           Flag = "modpack_manage_access"
	FlagPublisherManageCategoriesTags Flag = "publisher_manage_categories_tags"
	FlagPublisherViewStats            Flag = "publisher_view_stats"
)

// AllFlags lists every grantable flag, used by validation and seeding.
var AllFlags = []Flag{
	FlagModpackView,
	FlagModpackModify,
	FlagModpackManageVersions,
	FlagModpackPublish,
	FlagModpackDelete,
	FlagModpackManageAccess,
	FlagPublisherManageCategoriesTags,
	FlagPublisherViewStats,
}

func IsValidFlag(f Flag) bool {
	for _, known := range AllFlags {
		if f == known {
			return true
		}
	}
	return false
}

// DenialCode is the stable machine-readable code surfaced on a 403 so
// clients can tell the user which permission is missing.
func (f Flag) DenialCode() string {
	return "MISSING_PERMISSION_" + strings.ToUpper(string(f))
}

type targetKind int

const (
	targetInvalid targetKind = iota
	targetOrganization
	targetModpack
)

// ScopeTarget identifies what a scope row applies to: the whole
// organization or a single modpack. The two cases are constructed
// through OrganizationTarget/ModpackTarget so a row that names both
// cannot exist.
type ScopeTarget struct {
	kind targetKind
	id   string
}

func OrganizationTarget(publisherID string) ScopeTarget {
	return ScopeTarget{kind: targetOrganization, id: publisherID}
}

func ModpackTarget(modpackID string) ScopeTarget {
	return ScopeTarget{kind: targetModpack, id: modpackID}
}

func (t ScopeTarget) Valid() bool {
	return t.kind != targetInvalid && t.id != ""
}

func (t ScopeTarget) IsOrganization() bool {
	return t.kind == targetOrganization
}

// PublisherID returns the target publisher id for organization targets.
func (t ScopeTarget) PublisherID() (string, bool) {
	if t.kind == targetOrganization {
		return t.id, true
	}
	return "", false
}

// ModpackID returns the target modpack id for modpack targets.
func (t ScopeTarget) ModpackID() (string, bool) {
	if t.kind == targetModpack {
		return t.id, true
	}
	return "", false
}
