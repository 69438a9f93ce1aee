package settings

import (
	"context"
	"testing"
)

func TestNewCliParams(t *testing.T) {
	got := NewCliParams()
	want := &Run{
		MinLogLevel: 0,
		IsQuiet:     false,
		NoColor:     false,
		Interactive: false,
		ExitOnError: true,
	}
	if *got != *want {
		t.Errorf("NewCliParams() = %+v, want %+v", got, want)
	}
}

func TestContextRoundTrip(t *testing.T) {
	run := NewCliParams()
	ctx := IntoContext(context.Background(), run)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("FromContext() returned ok=false")
	}
	if got != run {
		t.Errorf("FromContext() = %p, want %p", got, run)
	}

	if _, ok := FromContext(context.Background()); ok {
		t.Error("FromContext() on empty context returned ok=true")
	}
}
