package dto

type CreateTenantRequest struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Domain *string `json:"domain"`
}

type UpdateTenantRequest struct {
	Name     *string `json:"name"`
	Domain   *string `json:"domain"`
	IsActive *bool   `json:"is_active"`
}

type LogoUploadResponse struct {
	URL string `json:"url"`
}
