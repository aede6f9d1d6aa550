package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDIsDeterministic(t *testing.T) {
	first := PostUUID("hello-world")
	second := PostUUID("hello-world")
	if first == uuid.Nil {
		t.Fatal("expected non-nil uuid")
	}
	if first != second {
		t.Fatalf("expected deterministic uuid, got %s and %s", first, second)
	}
}

func TestUUIDNamespacesDoNotCollide(t *testing.T) {
	post := PostUUID("release")
	tag := TagUUID("release")
	locale := LocaleUUID("release")
	if post == tag || post == locale || tag == locale {
		t.Fatalf("expected distinct namespaces, got post=%s tag=%s locale=%s", post, tag, locale)
	}
}

func TestUUIDEmptyKeyYieldsNil(t *testing.T) {
	if got := UUID("   "); got != uuid.Nil {
		t.Fatalf("expected nil uuid for blank key, got %s", got)
	}
}

func TestTranslationUUIDVariesByLocale(t *testing.T) {
	postID := PostUUID("hello-world")
	en := PostTranslationUUID(postID, "en")
	es := PostTranslationUUID(postID, "es")
	if en == es {
		t.Fatal("expected locale to differentiate translation ids")
	}
	if PostTranslationUUID(postID, " EN ") != en {
		t.Fatal("expected locale normalization before hashing")
	}
}
