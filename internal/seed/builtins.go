package seed

import (
	"agora/internal/models"

	"gorm.io/gorm"
)

// builtinCategories are the default topic labels every deployment starts
// with. Seeding them is idempotent; existing titles are left untouched.
var builtinCategories = []models.Category{
	{Title: "General", Description: "Anything that does not fit elsewhere"},
	{Title: "Programming", Description: "Code, languages and tooling"},
	{Title: "Backend", Description: "Servers, databases and APIs"},
	{Title: "Frontend", Description: "Browsers, UI and client frameworks"},
	{Title: "DevOps", Description: "Infrastructure, CI/CD and operations"},
	{Title: "Databases", Description: "Storage engines, queries and modeling"},
	{Title: "Networking", Description: "Protocols, routing and debugging"},
	{Title: "Security", Description: "Hardening, auth and vulnerabilities"},
	{Title: "Career", Description: "Jobs, interviews and growth"},
	{Title: "Hardware", Description: "Machines, components and homelab"},
}

// Categories ensures the built-in categories exist and returns the full set.
// Called from runtime bootstrap as well as the seeder.
func Categories(db *gorm.DB) ([]models.Category, error) {
	out := make([]models.Category, 0, len(builtinCategories))
	for _, c := range builtinCategories {
		category := models.Category{Title: c.Title}
		if err := db.Where(models.Category{Title: c.Title}).
			Attrs(models.Category{Description: c.Description}).
			FirstOrCreate(&category).Error; err != nil {
			return nil, err
		}
		out = append(out, category)
	}
	return out, nil
}

// seedCategories returns the built-in categories, going through the factory
// in dry-run mode so no database is needed.
func seedCategories(db *gorm.DB, f *Factory) ([]models.Category, error) {
	if !f.opts.DryRun {
		return Categories(db)
	}
	out := make([]models.Category, 0, len(builtinCategories))
	for _, c := range builtinCategories {
		category, err := f.CreateCategory(c.Title)
		if err != nil {
			return nil, err
		}
		out = append(out, *category)
	}
	return out, nil
}
