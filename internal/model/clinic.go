package model

// Clinic is a tenant. Only IsActive changes after creation.
type Clinic struct {
	Base
	Name     string `db:"name" json:"name"`
	Slug     string `db:"slug" json:"slug"`
	IsActive bool   `db:"is_active" json:"is_active"`
}

type ClinicSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (c *Clinic) Summary() ClinicSummary {
	return ClinicSummary{ID: c.ID.String(), Name: c.Name, Slug: c.Slug}
}
