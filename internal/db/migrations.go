package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'contract_status') THEN
			CREATE TYPE contract_status AS ENUM ('DRAFT', 'SENT', 'SIGNED', 'ACTIVE', 'TERMINATED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'consent_status') THEN
			CREATE TYPE consent_status AS ENUM ('PENDING', 'CONSENTED', 'REJECTED');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS matches (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		opportunity_id UUID NOT NULL REFERENCES opportunities(id),
		provider_id UUID NOT NULL REFERENCES users(id),
		offering_id UUID NOT NULL REFERENCES offerings(id),
		score INT NOT NULL,
		sub_scores JSONB NOT NULL,
		weights JSONB NOT NULL,
		explain JSONB NOT NULL DEFAULT '{}'::jsonb,
		notified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_match_opportunity_provider
		ON matches (opportunity_id, provider_id);`,
	`CREATE INDEX IF NOT EXISTS idx_match_provider_id ON matches (provider_id);`,
	`CREATE TABLE IF NOT EXISTS contracts_engine (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_type VARCHAR(32) NOT NULL,
		scope_type VARCHAR(32) NOT NULL,
		scope_id UUID NOT NULL,
		status contract_status NOT NULL DEFAULT 'DRAFT',
		parent_contract_id UUID REFERENCES contracts_engine(id),
		buyer_id UUID NOT NULL,
		buyer_party_type VARCHAR(32) NOT NULL,
		provider_id UUID NOT NULL,
		provider_party_type VARCHAR(32) NOT NULL,
		start_date DATE,
		end_date DATE,
		services_schedule JSONB NOT NULL DEFAULT '[]'::jsonb,
		payment_terms JSONB NOT NULL DEFAULT '{}'::jsonb,
		terms JSONB NOT NULL DEFAULT '{}'::jsonb,
		source_proposal_id UUID,
		source_version INT,
		is_multi_party BOOLEAN NOT NULL DEFAULT FALSE,
		governance JSONB,
		signed_by UUID,
		signed_at TIMESTAMPTZ,
		termination_reason TEXT,
		terminated_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contract_scope ON contracts_engine (scope_type, scope_id);`,
	`CREATE INDEX IF NOT EXISTS idx_contract_status ON contracts_engine (status);`,
	`CREATE INDEX IF NOT EXISTS idx_contract_source_proposal
		ON contracts_engine (source_proposal_id) WHERE source_proposal_id IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS contract_parties (
		contract_id UUID NOT NULL REFERENCES contracts_engine(id) ON DELETE CASCADE,
		party_id UUID NOT NULL,
		party_type VARCHAR(32) NOT NULL,
		role VARCHAR(64),
		share_percent NUMERIC(6,2) NOT NULL DEFAULT 0,
		consent_status consent_status NOT NULL DEFAULT 'PENDING',
		consented_at TIMESTAMPTZ,
		PRIMARY KEY (contract_id, party_id)
	);`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		recipient_id UUID NOT NULL,
		kind VARCHAR(32) NOT NULL,
		subject_id UUID NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_notification_recipient ON notifications (recipient_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
