package archive

import "testing"

func TestObjectKeyJoinsPrefixAndFolder(t *testing.T) {
	svc := &Service{bucket: "b", prefix: "published"}
	if got := svc.objectKey("intro-to-go", "final.mp4"); got != "published/intro-to-go/final.mp4" {
		t.Fatalf("unexpected key %q", got)
	}

	svc.prefix = ""
	if got := svc.objectKey("/intro-to-go/", "chapters.json"); got != "intro-to-go/chapters.json" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := svc.objectKey("", "final.mp4"); got != "final.mp4" {
		t.Fatalf("unexpected key %q", got)
	}
}
