package hydrate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

type displaySettings struct {
	Theme     string     `yaml:"theme"`
	Mode      string     `yaml:"mode"`
	Quiet     quietHours `yaml:"quiet_hours"`
	PageSize  int        `yaml:"page_size"`
	Tags      []string   `yaml:"tags"`
	Currency  *currency  `yaml:"currency"`
	Ephemeral string     `yaml:"-"`
}

type quietHours struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type currency struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

func TestDecoderCases(t *testing.T) {
	cases := []struct {
		name      string
		input     map[string]any
		options   []DecoderOption[displaySettings]
		expect    displaySettings
		expectErr string
	}{
		{
			name: "yaml tags",
			input: map[string]any{
				"theme":       "compact",
				"mode":        "dark",
				"page_size":   25,
				"quiet_hours": map[string]any{"start": "22:00", "end": "07:00"},
				"currency":    map[string]any{"id": "EUR", "name": "Euro"},
			},
			expect: displaySettings{
				Theme:    "compact",
				Mode:     "dark",
				PageSize: 25,
				Quiet:    quietHours{Start: "22:00", End: "07:00"},
				Currency: &currency{ID: "EUR", Name: "Euro"},
			},
		},
		{
			name:    "pre hook splits quiet hours",
			input:   map[string]any{"quiet_hours": "22:00 - 07:00"},
			options: []DecoderOption[displaySettings]{WithPreHook[displaySettings](quietHoursPreHook)},
			expect:  displaySettings{Quiet: quietHours{Start: "22:00", End: "07:00"}},
		},
		{
			name:      "pre hook error",
			input:     map[string]any{"quiet_hours": "late"},
			options:   []DecoderOption[displaySettings]{WithPreHook[displaySettings](quietHoursPreHook)},
			expectErr: "pre-hook for config.yaml#display failed",
		},
		{
			name:    "post hook tags",
			input:   map[string]any{"theme": "default"},
			options: []DecoderOption[displaySettings]{WithPostHook[displaySettings](ensureTagPostHook)},
			expect:  displaySettings{Theme: "default", Tags: []string{"display:default"}},
		},
		{
			name:      "unknown field rejected",
			input:     map[string]any{"theme": "default", "colour": "blue"},
			options:   []DecoderOption[displaySettings]{WithDisallowUnknownFields[displaySettings]()},
			expectErr: "colour",
		},
		{
			name:   "unknown field ignored by default",
			input:  map[string]any{"theme": "default", "colour": "blue"},
			expect: displaySettings{Theme: "default"},
		},
		{
			name:      "type mismatch",
			input:     map[string]any{"page_size": "ten"},
			expectErr: "hydrate: decode config.yaml#display",
		},
		{
			name:    "weakly typed input",
			input:   map[string]any{"page_size": "10"},
			options: []DecoderOption[displaySettings]{WithWeaklyTypedInput[displaySettings]()},
			expect:  displaySettings{PageSize: 10},
		},
		{
			name:  "custom decoder",
			input: map[string]any{"preset": "dense"},
			options: []DecoderOption[displaySettings]{WithCustomDecoder[displaySettings](func(_ Context, payload map[string]any) (displaySettings, error) {
				if payload["preset"] != "dense" {
					return displaySettings{}, errors.New("unknown preset")
				}
				return displaySettings{Theme: "compact", PageSize: 100}, nil
			})},
			expect: displaySettings{Theme: "compact", PageSize: 100},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decoder := NewDecoder(tc.options...)
			result, err := decoder.Decode(Context{Source: "config.yaml", Section: "display"}, tc.input)

			if tc.expectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.expectErr)
				}
				if !strings.Contains(err.Error(), tc.expectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.expectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if !reflect.DeepEqual(tc.expect, result) {
				t.Fatalf("decoded mismatch:\nwant: %#v\n got: %#v", tc.expect, result)
			}
		})
	}
}

func TestDecoderNilPayload(t *testing.T) {
	_, err := NewDecoder[displaySettings]().Decode(Context{}, nil)
	if err == nil || !strings.Contains(err.Error(), "payload is nil for <inline>") {
		t.Fatalf("expected nil payload error, got %v", err)
	}
}

func TestDecoderDoesNotMutatePayload(t *testing.T) {
	nested := map[string]any{"start": "22:00", "end": "07:00"}
	payload := map[string]any{"quiet_hours": nested}

	mutate := func(_ Context, p map[string]any) (map[string]any, error) {
		p["quiet_hours"].(map[string]any)["start"] = "mutated"
		return p, nil
	}
	decoder := NewDecoder(WithPreHook[displaySettings](mutate))
	result, err := decoder.Decode(Context{}, payload)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if result.Quiet.Start != "mutated" {
		t.Fatalf("expected hook mutation to reach result, got %q", result.Quiet.Start)
	}
	if nested["start"] != "22:00" {
		t.Fatalf("expected caller payload untouched, got %q", nested["start"])
	}
}

func TestContextString(t *testing.T) {
	cases := map[Context]string{
		{}:                                     "<inline>",
		{Source: "a.yaml"}:                     "a.yaml",
		{Section: "logging"}:                   "logging",
		{Source: "a.yaml", Section: "logging"}: "a.yaml#logging",
	}
	for ctx, want := range cases {
		if got := ctx.String(); got != want {
			t.Fatalf("Context%+v.String() = %q, want %q", ctx, got, want)
		}
	}
}

func quietHoursPreHook(_ Context, payload map[string]any) (map[string]any, error) {
	value, ok := payload["quiet_hours"].(string)
	if !ok || value == "" {
		return payload, nil
	}

	parts := strings.Split(value, "-")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid quiet hours payload %q", value)
	}

	payload["quiet_hours"] = map[string]any{
		"start": strings.TrimSpace(parts[0]),
		"end":   strings.TrimSpace(parts[1]),
	}
	return payload, nil
}

func ensureTagPostHook(ctx Context, settings *displaySettings) error {
	if settings == nil {
		return errors.New("settings is nil")
	}
	if len(settings.Tags) > 0 {
		return nil
	}
	settings.Tags = []string{fmt.Sprintf("%s:%s", ctx.Section, settings.Theme)}
	return nil
}
