package db

import (
	"database/sql"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vaishnavucv/droid-proctoring/internal/config"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS user_assessments (
	user_id         TEXT NOT NULL,
	course_id       TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'not_started',
	attempts_taken  INTEGER NOT NULL DEFAULT 0,
	score           INTEGER,
	result          TEXT,
	proctoring_logs JSONB NOT NULL DEFAULT '[]'::jsonb,
	start_time      TIMESTAMPTZ,
	end_time        TIMESTAMPTZ,
	PRIMARY KEY (user_id, course_id)
);
`

func newMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Run: func(_ *cobra.Command, _ []string) {
			if err := migrate(); err != nil {
				log.Fatal().Err(err).Msg("Migration failed")
			}
			log.Info().Msg("Migration applied")
		},
	}
}

func migrate() error {
	cfg := config.DefaultServiceConfigFromEnv()

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec(schema)
	return err
}
