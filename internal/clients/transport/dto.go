package transport

import "time"

type CreateClientRequest struct {
	FirstName string  `json:"firstName" validate:"required,min=1,max=120"`
	LastName  string  `json:"lastName" validate:"required,min=1,max=120"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,min=3,max=32"`
	Address   *string `json:"address" validate:"omitempty,max=500"`
	Age       *int    `json:"age" validate:"omitempty,gte=0,lte=130"`
	Job       *string `json:"job" validate:"omitempty,max=120"`
	Notes     *string `json:"notes" validate:"omitempty,max=2000"`
}

type UpdateClientRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1,max=120"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1,max=120"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,min=3,max=32"`
	Address   *string `json:"address" validate:"omitempty,max=500"`
	Age       *int    `json:"age" validate:"omitempty,gte=0,lte=130"`
	Job       *string `json:"job" validate:"omitempty,max=120"`
	Notes     *string `json:"notes" validate:"omitempty,max=2000"`
}

type ClientResponse struct {
	ID               string     `json:"id"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Email            *string    `json:"email"`
	Phone            *string    `json:"phone"`
	Address          *string    `json:"address"`
	Age              *int       `json:"age"`
	Job              *string    `json:"job"`
	Notes            *string    `json:"notes"`
	LastContactAt    *time.Time `json:"lastContactAt"`
	OpportunityScore int        `json:"opportunityScore"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type ClientDetailResponse struct {
	ClientResponse
	Contracts []ContractResponse `json:"contracts"`
}

type ClientListResponse struct {
	Items []ClientResponse `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

type AddContractRequest struct {
	Type         string     `json:"type" validate:"required,min=1,max=80"`
	PolicyNumber string     `json:"policyNumber" validate:"required,min=1,max=80"`
	Status       string     `json:"status" validate:"omitempty,oneof=active pending expired cancelled"`
	PremiumCents *int64     `json:"premiumCents" validate:"omitempty,min=0"`
	StartDate    time.Time  `json:"startDate" validate:"required"`
	EndDate      *time.Time `json:"endDate"`
}

type UpdateContractStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active pending expired cancelled"`
}

type ContractResponse struct {
	ID           string     `json:"id"`
	ClientID     string     `json:"clientId"`
	Type         string     `json:"type"`
	PolicyNumber string     `json:"policyNumber"`
	Status       string     `json:"status"`
	PremiumCents *int64     `json:"premiumCents"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type RescoreResponse struct {
	ClientID         string `json:"clientId"`
	OpportunityScore int    `json:"opportunityScore"`
}
