package filter

import (
	"testing"

	"github.com/vijay-prabhu/mailsplit/internal/config"
	"github.com/vijay-prabhu/mailsplit/internal/email"
)

func TestFilter_DomainBlacklist(t *testing.T) {
	cfg := config.FilterConfig{
		DomainBlacklist: []string{"noreply@", "mailer-daemon@example.com", "mailchimp.com"},
	}
	f := New(cfg)

	tests := []struct {
		name     string
		from     string
		wantIncl bool
		wantLyr  Layer
	}{
		{
			name:     "prefix pattern",
			from:     "noreply@zillow.com",
			wantIncl: false,
			wantLyr:  LayerBlacklist,
		},
		{
			name:     "exact address",
			from:     "MAILER-DAEMON@example.com",
			wantIncl: false,
			wantLyr:  LayerBlacklist,
		},
		{
			name:     "subdomain",
			from:     "campaigns@us5.mailchimp.com",
			wantIncl: false,
			wantLyr:  LayerBlacklist,
		},
		{
			name:     "unrelated sender",
			from:     "jane@acme-realty.com",
			wantIncl: true,
			wantLyr:  LayerDefault,
		},
		{
			name:     "domain lookalike",
			from:     "jane@notmailchimp.com",
			wantIncl: true,
			wantLyr:  LayerDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &email.Email{
				From: email.Address{Email: tt.from},
			}
			result := f.Apply(e)

			if result.Include != tt.wantIncl {
				t.Errorf("Include = %v, want %v", result.Include, tt.wantIncl)
			}
			if result.Layer != tt.wantLyr {
				t.Errorf("Layer = %v, want %v", result.Layer, tt.wantLyr)
			}
		})
	}
}

func TestFilter_WhitelistWins(t *testing.T) {
	f := New(config.FilterConfig{
		DomainWhitelist:  []string{"acme-realty.com"},
		DomainBlacklist:  []string{"noreply@"},
		SubjectBlacklist: []string{"automatic reply"},
	})

	e := &email.Email{
		From:    email.Address{Email: "noreply@acme-realty.com"},
		Subject: "Automatic reply: closing docs",
	}
	result := f.Apply(e)
	if !result.Include || result.Layer != LayerWhitelist {
		t.Errorf("expected whitelist include, got %+v", result)
	}
}

func TestFilter_SubjectBlacklist(t *testing.T) {
	f := New(config.Default().Filters)

	tests := []struct {
		subject  string
		wantIncl bool
	}{
		{"Automatic reply: Re: 120 Main St", false},
		{"Out of Office", false},
		{"Undeliverable: Lease draft", false},
		{"Re: 120 Main St", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			e := &email.Email{
				From:    email.Address{Email: "jane@acme-realty.com"},
				Subject: tt.subject,
			}
			result := f.Apply(e)
			if result.Include != tt.wantIncl {
				t.Errorf("Include = %v, want %v (%s)", result.Include, tt.wantIncl, result.Reason)
			}
		})
	}
}

func TestFilter_NoSender(t *testing.T) {
	f := New(config.FilterConfig{DomainBlacklist: []string{"example.com"}})

	result := f.Apply(&email.Email{Subject: "hello"})
	if !result.Include {
		t.Errorf("expected messages without a sender to pass, got %+v", result)
	}
}

func TestMatchesDomainPattern(t *testing.T) {
	tests := []struct {
		domain, address, pattern string
		want                     bool
	}{
		{"example.com", "a@example.com", "example.com", true},
		{"mail.example.com", "a@mail.example.com", "example.com", true},
		{"badexample.com", "a@badexample.com", "example.com", false},
		{"example.com", "noreply@example.com", "noreply@", true},
		{"example.com", "reply@example.com", "noreply@", false},
		{"example.com", "a@example.com", "", false},
	}

	for _, tt := range tests {
		if got := matchesDomainPattern(tt.domain, tt.address, tt.pattern); got != tt.want {
			t.Errorf("matchesDomainPattern(%q, %q, %q) = %v, want %v", tt.domain, tt.address, tt.pattern, got, tt.want)
		}
	}
}
