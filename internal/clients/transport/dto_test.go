package transport

import (
	"strings"
	"testing"

	"assurdesk_backend/platform/validator"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestCreateClientRequestValidation(t *testing.T) {
	val := validator.New()

	tests := []struct {
		name    string
		req     CreateClientRequest
		wantErr bool
	}{
		{
			name: "full profile",
			req: CreateClientRequest{
				FirstName: "Jean",
				LastName:  "Martin",
				Email:     strPtr("jean.martin@example.com"),
				Age:       intPtr(42),
				Job:       strPtr("artisan boulanger"),
			},
		},
		{
			name: "age and job optional",
			req:  CreateClientRequest{FirstName: "Jean", LastName: "Martin"},
		},
		{
			name:    "negative age",
			req:     CreateClientRequest{FirstName: "Jean", LastName: "Martin", Age: intPtr(-1)},
			wantErr: true,
		},
		{
			name:    "implausible age",
			req:     CreateClientRequest{FirstName: "Jean", LastName: "Martin", Age: intPtr(131)},
			wantErr: true,
		},
		{
			name:    "job too long",
			req:     CreateClientRequest{FirstName: "Jean", LastName: "Martin", Job: strPtr(strings.Repeat("x", 121))},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := val.Struct(tt.req)
			if tt.wantErr && err == nil {
				t.Fatal("expected a validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestUpdateClientRequestValidatesAgeBounds(t *testing.T) {
	val := validator.New()

	if err := val.Struct(UpdateClientRequest{Age: intPtr(65), Job: strPtr("retraité")}); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if err := val.Struct(UpdateClientRequest{Age: intPtr(-5)}); err == nil {
		t.Fatal("expected a validation error for negative age")
	}
}
