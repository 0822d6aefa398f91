package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/mfl-intake/internal/cache"
	"github.com/spec-kit/mfl-intake/internal/config"
	"github.com/spec-kit/mfl-intake/internal/domain"
	apperrors "github.com/spec-kit/mfl-intake/pkg/util/errorutil"
)

func TestFormFieldsResolvedAndCached(t *testing.T) {
	mw := &fakeMiddleware{meta: &domain.FormMetadata{
		DropdownOptions: map[string][]string{"360001": {"Acme", "Globex"}},
		FieldMapping:    map[string]domain.FieldInfo{"360001": {Title: "Client Name"}, "360002": {Title: "Where Seen"}},
	}}
	zd := config.ZendeskConfig{CustomFields: map[string]config.FieldID{
		"client_field_id":  "360001",
		"sources_field_id": "360002",
	}}
	svc := NewFormService(mw, cache.NewMemoryProvider(), time.Minute, zd, nil)

	fields, err := svc.Fields(context.Background())
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	if len(fields) != 10 {
		t.Fatalf("got %d fields", len(fields))
	}
	byName := map[string]domain.FieldDescriptor{}
	for _, f := range fields {
		byName[f.Name] = f
	}
	if c := byName["client"]; c.Kind != domain.FieldKindDropdown || c.Label != "Client Name" || !c.Required {
		t.Fatalf("client = %+v", c)
	}
	if s := byName["sources"]; s.Kind != domain.FieldKindFreeText || s.Label != "Where Seen" {
		t.Fatalf("sources = %+v", s)
	}
	if fields[0].Name != "subject" || !fields[0].Required {
		t.Fatalf("first field = %+v", fields[0])
	}

	if _, err := svc.Fields(context.Background()); err != nil {
		t.Fatalf("Fields: %v", err)
	}
	if mw.metaCalls != 1 {
		t.Fatalf("metadata fetched %d times", mw.metaCalls)
	}
}

func TestFormFieldsUpstreamFailure(t *testing.T) {
	svc := NewFormService(&fakeMiddleware{}, nil, time.Minute, config.ZendeskConfig{}, nil)
	if _, err := svc.Fields(context.Background()); !apperrors.HasCode(err, apperrors.CodeUpstream) {
		t.Fatalf("want UPSTREAM_ERROR, got %v", err)
	}
}

func TestFormRefreshBypassesCache(t *testing.T) {
	mw := &fakeMiddleware{meta: &domain.FormMetadata{
		DropdownOptions: map[string][]string{},
		FieldMapping:    map[string]domain.FieldInfo{},
	}}
	svc := NewFormService(mw, cache.NewMemoryProvider(), time.Minute, config.ZendeskConfig{}, nil)

	if _, err := svc.Fields(context.Background()); err != nil {
		t.Fatalf("Fields: %v", err)
	}
	mw.meta = &domain.FormMetadata{
		DropdownOptions: map[string][]string{"360001": {"Acme"}},
		FieldMapping:    map[string]domain.FieldInfo{},
	}
	svc.zendesk = config.ZendeskConfig{CustomFields: map[string]config.FieldID{"client_field_id": "360001"}}

	fields, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if mw.metaCalls != 2 || fields[3].Kind != domain.FieldKindDropdown {
		t.Fatalf("calls %d, client = %+v", mw.metaCalls, fields[3])
	}
	if _, err := svc.Fields(context.Background()); err != nil || mw.metaCalls != 2 {
		t.Fatalf("refreshed metadata not cached: calls %d, %v", mw.metaCalls, err)
	}
}
