package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bina-platform/marketplace-engine/internal/model"
)

// OpportunityRepository reads opportunity, offering and provider records from
// the shared platform store. The engine never writes to these tables.
type OpportunityRepository struct {
	db *gorm.DB
}

func NewOpportunityRepository(db *gorm.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

type opportunityRow struct {
	ID                 uuid.UUID
	Kind               string
	Category           string
	SkillTags          []byte
	BudgetMin          float64
	BudgetMax          float64
	Currency           string
	Country            string
	City               string
	RemoteAllowed      bool
	StartDate          *time.Time
	DurationDays       int
	PaymentMode        string
	BarterRule         string
	Status             string
	RequiredExperience string
	MinExperienceYears int
	EquitySplit        string
	WorkPackages       []byte
	CreatorID          uuid.UUID
	CreatedAt          time.Time
}

func (row *opportunityRow) toModel() (*model.Opportunity, error) {
	opp := &model.Opportunity{
		ID:       row.ID,
		Kind:     model.OpportunityKind(row.Kind),
		Category: row.Category,
		Budget: model.BudgetRange{
			Min:      row.BudgetMin,
			Max:      row.BudgetMax,
			Currency: row.Currency,
		},
		Location: model.Location{
			Country:       row.Country,
			City:          row.City,
			RemoteAllowed: row.RemoteAllowed,
		},
		Timeline: model.Timeline{
			StartDate:    row.StartDate,
			DurationDays: row.DurationDays,
		},
		PaymentTerms: model.PaymentTerms{
			Mode:       model.PaymentMode(row.PaymentMode),
			BarterRule: row.BarterRule,
		},
		Status:             model.OpportunityStatus(row.Status),
		RequiredExperience: model.ExperienceLevel(row.RequiredExperience),
		MinExperienceYears: row.MinExperienceYears,
		EquitySplit:        row.EquitySplit,
		CreatorID:          row.CreatorID,
		CreatedAt:          row.CreatedAt,
	}
	if err := jsonScan(row.SkillTags, &opp.SkillTags); err != nil {
		return nil, fmt.Errorf("decode skill_tags: %w", err)
	}
	if err := jsonScan(row.WorkPackages, &opp.WorkPackages); err != nil {
		return nil, fmt.Errorf("decode work_packages: %w", err)
	}
	return opp, nil
}

const opportunitySelect = `
	SELECT
		o.id,
		o.kind,
		o.category,
		o.skill_tags,
		COALESCE(o.budget_min, 0) AS budget_min,
		COALESCE(o.budget_max, 0) AS budget_max,
		COALESCE(o.currency, '') AS currency,
		COALESCE(o.country, '') AS country,
		COALESCE(o.city, '') AS city,
		COALESCE(o.remote_allowed, false) AS remote_allowed,
		o.start_date,
		COALESCE(o.duration_days, 0) AS duration_days,
		COALESCE(o.payment_mode, 'CASH') AS payment_mode,
		COALESCE(o.barter_rule, '') AS barter_rule,
		o.status,
		COALESCE(o.required_experience, '') AS required_experience,
		COALESCE(o.min_experience_years, 0) AS min_experience_years,
		COALESCE(o.equity_split, '') AS equity_split,
		o.work_packages,
		o.creator_id,
		o.created_at
	FROM opportunities o
`

func (r *OpportunityRepository) GetOpportunity(ctx context.Context, id uuid.UUID) (*model.Opportunity, error) {
	var row opportunityRow
	err := r.db.WithContext(ctx).Raw(opportunitySelect+` WHERE o.id = ?`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return row.toModel()
}

func (r *OpportunityRepository) ListPublishedOpportunities(ctx context.Context) ([]model.Opportunity, error) {
	var rows []opportunityRow
	err := r.db.WithContext(ctx).
		Raw(opportunitySelect+` WHERE o.status = ? ORDER BY o.created_at ASC`, model.OpportunityStatusPublished).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	opportunities := make([]model.Opportunity, 0, len(rows))
	for i := range rows {
		opp, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		opportunities = append(opportunities, *opp)
	}
	return opportunities, nil
}

type offeringRow struct {
	ID              uuid.UUID
	ProviderID      uuid.UUID
	Category        string
	SkillTags       []byte
	PriceMin        float64
	PriceMax        float64
	Currency        string
	PricingType     string
	DeliveryMode    string
	ExchangeType    string
	Country         string
	City            string
	RemoteAllowed   bool
	ServiceRadiusKm int
	AvailableFrom   *time.Time
	AvailableTo     *time.Time
	LeadTimeDays    int
	Status          string
}

func (row *offeringRow) toModel() (*model.Offering, error) {
	off := &model.Offering{
		ID:         row.ID,
		ProviderID: row.ProviderID,
		Category:   row.Category,
		Price: model.BudgetRange{
			Min:      row.PriceMin,
			Max:      row.PriceMax,
			Currency: row.Currency,
		},
		PricingType:  model.PricingType(row.PricingType),
		DeliveryMode: row.DeliveryMode,
		ExchangeType: model.PaymentMode(row.ExchangeType),
		Location: model.Location{
			Country:       row.Country,
			City:          row.City,
			RemoteAllowed: row.RemoteAllowed,
		},
		ServiceRadiusKm: row.ServiceRadiusKm,
		Availability: model.Availability{
			From:         row.AvailableFrom,
			To:           row.AvailableTo,
			LeadTimeDays: row.LeadTimeDays,
		},
		Status: model.OfferingStatus(row.Status),
	}
	if err := jsonScan(row.SkillTags, &off.SkillTags); err != nil {
		return nil, fmt.Errorf("decode skill_tags: %w", err)
	}
	return off, nil
}

const offeringSelect = `
	SELECT
		f.id,
		f.provider_id,
		f.category,
		f.skill_tags,
		COALESCE(f.price_min, 0) AS price_min,
		COALESCE(f.price_max, 0) AS price_max,
		COALESCE(f.currency, '') AS currency,
		COALESCE(f.pricing_type, 'FIXED') AS pricing_type,
		COALESCE(f.delivery_mode, '') AS delivery_mode,
		COALESCE(f.exchange_type, '') AS exchange_type,
		COALESCE(f.country, '') AS country,
		COALESCE(f.city, '') AS city,
		COALESCE(f.remote_allowed, false) AS remote_allowed,
		COALESCE(f.service_radius_km, 0) AS service_radius_km,
		f.available_from,
		f.available_to,
		COALESCE(f.lead_time_days, 0) AS lead_time_days,
		f.status
	FROM offerings f
`

// OfferingFilter narrows the candidate set before scoring. All fields are
// optional.
type OfferingFilter struct {
	Category   string
	Country    string
	ProviderID *uuid.UUID
}

func (r *OpportunityRepository) ListActiveOfferings(ctx context.Context, filter OfferingFilter) ([]model.Offering, error) {
	query := offeringSelect + ` WHERE f.status = ?`
	args := []interface{}{model.OfferingStatusActive}

	var filters []string
	if filter.Category != "" {
		filters = append(filters, "LOWER(f.category) = LOWER(?)")
		args = append(args, filter.Category)
	}
	if filter.Country != "" {
		// Remote offerings stay in scope regardless of country.
		filters = append(filters, "(LOWER(f.country) = LOWER(?) OR f.remote_allowed)")
		args = append(args, filter.Country)
	}
	if filter.ProviderID != nil {
		filters = append(filters, "f.provider_id = ?")
		args = append(args, *filter.ProviderID)
	}
	if len(filters) > 0 {
		query += " AND " + strings.Join(filters, " AND ")
	}
	query += " ORDER BY f.id ASC"

	var rows []offeringRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	offerings := make([]model.Offering, 0, len(rows))
	for i := range rows {
		off, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		offerings = append(offerings, *off)
	}
	return offerings, nil
}

// ApprovedApplication is one approved applicant of a multi-party
// opportunity, with an optional declared share.
type ApprovedApplication struct {
	ApplicantID  uuid.UUID
	PartyType    string
	SharePercent *float64
}

func (r *OpportunityRepository) ListApprovedApplications(ctx context.Context, opportunityID uuid.UUID) ([]ApprovedApplication, error) {
	var rows []struct {
		ApplicantID  uuid.UUID
		PartyType    *string
		SharePercent *float64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT a.applicant_id, a.party_type, a.share_percent
		FROM opportunity_applications a
		WHERE a.opportunity_id = ? AND a.status = 'APPROVED'
		ORDER BY a.created_at ASC
	`, opportunityID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	applications := make([]ApprovedApplication, 0, len(rows))
	for _, row := range rows {
		app := ApprovedApplication{
			ApplicantID:  row.ApplicantID,
			SharePercent: row.SharePercent,
		}
		if row.PartyType != nil {
			app.PartyType = *row.PartyType
		}
		applications = append(applications, app)
	}
	return applications, nil
}

func (r *OpportunityRepository) GetProvider(ctx context.Context, id uuid.UUID) (*model.Provider, error) {
	var row struct {
		ID              uuid.UUID
		Approved        bool
		ExperienceLevel string
		ExperienceYears int
		Country         string
		City            string
		RemoteAllowed   bool
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			u.id,
			COALESCE(u.approved, false) AS approved,
			COALESCE(u.experience_level, '') AS experience_level,
			COALESCE(u.experience_years, 0) AS experience_years,
			COALESCE(u.country, '') AS country,
			COALESCE(u.city, '') AS city,
			COALESCE(u.remote_allowed, false) AS remote_allowed
		FROM users u
		WHERE u.id = ?
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	return &model.Provider{
		ID:              row.ID,
		Approved:        row.Approved,
		ExperienceLevel: model.ExperienceLevel(row.ExperienceLevel),
		ExperienceYears: row.ExperienceYears,
		Location: model.Location{
			Country:       row.Country,
			City:          row.City,
			RemoteAllowed: row.RemoteAllowed,
		},
	}, nil
}
