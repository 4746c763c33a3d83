package email

import (
	"strings"
	"testing"
)

func TestIsConfigured(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"empty", Config{}, false},
		{"missing from", Config{Host: "smtp.example.com", Port: "587"}, false},
		{"complete", Config{Host: "smtp.example.com", Port: "587", From: "no-reply@citylyfe.example"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NewService(tc.cfg).IsConfigured(); got != tc.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSendFailsFastWhenUnconfigured(t *testing.T) {
	svc := NewService(Config{})
	if err := svc.SendEmail([]string{"a@example.com"}, "subj", "body"); err == nil {
		t.Error("expected error from unconfigured service")
	}
	if err := svc.SendHTMLEmail([]string{"a@example.com"}, "subj", "<p>hi</p>"); err == nil {
		t.Error("expected error from unconfigured service")
	}
}

func TestQuoteTemplateRendersOptionalFields(t *testing.T) {
	html, err := renderTemplate(quoteRequestEmailTemplate, QuoteRequestData{
		AppName:      "CityLyfe",
		Name:         "Rosa Diaz",
		Email:        "rosa@example.com",
		Phone:        "555-0101",
		Company:      "Rosa's Bakery",
		Message:      "Need a website for my bakery",
		DashboardURL: "https://admin.citylyfe.example/quotes",
	})
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}
	for _, want := range []string{"Rosa Diaz", "rosa@example.com", "555-0101", "Rosa&#39;s Bakery", "Need a website for my bakery", "https://admin.citylyfe.example/quotes"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered quote email missing %q", want)
		}
	}

	// Phone and company rows are skipped when blank.
	html, err = renderTemplate(quoteRequestEmailTemplate, QuoteRequestData{Name: "Rosa Diaz", Email: "rosa@example.com"})
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}
	if strings.Contains(html, "Phone:") || strings.Contains(html, "Company:") {
		t.Error("blank optional fields should not render")
	}
}

func TestPasswordResetTemplate(t *testing.T) {
	html, err := renderTemplate(passwordResetEmailTemplate, PasswordResetData{
		AppName:  "CityLyfe",
		UserName: "Rosa",
		ResetURL: "https://citylyfe.example/reset?token=abc",
	})
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}
	if !strings.Contains(html, "Hi Rosa,") {
		t.Error("missing greeting")
	}
	if strings.Count(html, "https://citylyfe.example/reset?token=abc") < 2 {
		t.Error("reset URL should appear in both the button and the plain link")
	}
}
