// Package postgres implements the PostgreSQL persistence layer.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE ROSTER
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create roster table
-- Version: 001

CREATE TABLE IF NOT EXISTS roster_students (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_name VARCHAR(100) NOT NULL,
    grade SMALLINT NOT NULL,
    class VARCHAR(5) NOT NULL,
    region VARCHAR(10) NOT NULL,
    homework_submitted BOOLEAN NOT NULL DEFAULT FALSE,
    submission_date DATE,
    quiz_score DECIMAL(5,2),
    quiz_date DATE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_grade CHECK (grade >= 1 AND grade <= 12),
    CONSTRAINT valid_region CHECK (region IN ('North', 'South', 'East', 'West')),
    CONSTRAINT valid_quiz_score CHECK (quiz_score IS NULL OR (quiz_score >= 0 AND quiz_score <= 100)),
    CONSTRAINT submission_date_requires_submission CHECK (submission_date IS NULL OR homework_submitted)
);

-- Indexes matching the scope and filter dimensions
CREATE INDEX IF NOT EXISTS idx_roster_grade ON roster_students(grade);
CREATE INDEX IF NOT EXISTS idx_roster_class ON roster_students(class);
CREATE INDEX IF NOT EXISTS idx_roster_region ON roster_students(region);
CREATE INDEX IF NOT EXISTS idx_roster_submitted ON roster_students(homework_submitted);
CREATE INDEX IF NOT EXISTS idx_roster_quiz_date ON roster_students(quiz_date);
CREATE INDEX IF NOT EXISTS idx_roster_grade_class ON roster_students(grade, class);
`

const migration001Down = `
DROP TABLE IF EXISTS roster_students;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE AUDIT TRAIL
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create query audit trail
-- Version: 002

CREATE TABLE IF NOT EXISTS query_audit (
    id BIGSERIAL PRIMARY KEY,
    event_type VARCHAR(40) NOT NULL,
    admin_id VARCHAR(50) NOT NULL,
    question TEXT NOT NULL,
    action VARCHAR(30) NOT NULL DEFAULT '',
    trace JSONB NOT NULL DEFAULT '[]'::jsonb,
    matched_rows INTEGER NOT NULL DEFAULT 0,
    detail TEXT NOT NULL DEFAULT '',
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_query_audit_admin ON query_audit(admin_id, occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_query_audit_type ON query_audit(event_type);
CREATE INDEX IF NOT EXISTS idx_query_audit_occurred ON query_audit(occurred_at DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS query_audit;
`
