package identity

import (
	"strconv"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// PostUUID derives the stable identifier for a post from its slug.
func PostUUID(slug string) uuid.UUID {
	return UUID("press:post:" + strings.ToLower(strings.TrimSpace(slug)))
}

// PostTranslationUUID derives the identifier for a post translation.
func PostTranslationUUID(postID uuid.UUID, locale string) uuid.UUID {
	return UUID("press:post_translation:" + postID.String() + ":" + strings.ToLower(strings.TrimSpace(locale)))
}

// PostVersionUUID derives the identifier for a captured post revision.
func PostVersionUUID(postID uuid.UUID, version int) uuid.UUID {
	return UUID("press:post_version:" + postID.String() + ":" + strconv.Itoa(version))
}

// TagUUID derives the identifier for a tag from its normalized name.
func TagUUID(name string) uuid.UUID {
	return UUID("press:tag:" + strings.ToLower(strings.TrimSpace(name)))
}

// LocaleUUID derives the identifier for a locale from its code.
func LocaleUUID(localeCode string) uuid.UUID {
	return UUID("press:locale:" + strings.ToLower(strings.TrimSpace(localeCode)))
}

// JobUUID derives the identifier for a scheduled job from its dedupe key.
func JobUUID(key string) uuid.UUID {
	return UUID("press:job:" + strings.TrimSpace(key))
}

// SitePageUUID derives the identifier for a generated listing page that has
// no backing post record, such as archive and tag indexes.
func SitePageUUID(kind, key string) uuid.UUID {
	return UUID("press:site_page:" + strings.ToLower(strings.TrimSpace(kind)) + ":" + strings.ToLower(strings.TrimSpace(key)))
}
