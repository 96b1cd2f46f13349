package remote

import "testing"

func TestParseLocal(t *testing.T) {
	spec, err := Parse("/var/lib/disk.img")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !spec.Local || spec.Path != "/var/lib/disk.img" {
		t.Fatalf("unexpected spec: %+v", spec)
	}
}

func TestParseRemoteNoUser(t *testing.T) {
	spec, err := Parse("build-host:/var/lib/disk.img")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if spec.Local || spec.Host != "build-host" || spec.User != "" || spec.Path != "/var/lib/disk.img" {
		t.Fatalf("unexpected spec: %+v", spec)
	}
}

func TestParseRemoteWithUser(t *testing.T) {
	spec, err := Parse("deploy@build-host:disk.img")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if spec.Local || spec.Host != "build-host" || spec.User != "deploy" || spec.Path != "disk.img" {
		t.Fatalf("unexpected spec: %+v", spec)
	}
}

func TestParseEmptyDestination(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatal("expected error for empty destination")
	}
}

func TestParseEmptyUsername(t *testing.T) {
	if _, err := Parse("@host:path"); err == nil {
		t.Fatal("expected error for empty username")
	}
}

func TestParseEmptyRemotePath(t *testing.T) {
	if _, err := Parse("host:"); err == nil {
		t.Fatal("expected error for empty remote path")
	}
}

func TestStringRoundTrip(t *testing.T) {
	spec, err := Parse("deploy@build-host:disk.img")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if spec.String() != "deploy@build-host:disk.img" {
		t.Fatalf("unexpected String(): %q", spec.String())
	}
}
