package db

import (
	"database/sql"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vaishnavucv/droid-proctoring/internal/config"

	_ "github.com/lib/pq"
)

func newSeed() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert development fixtures",
		Run: func(_ *cobra.Command, _ []string) {
			if err := seed(); err != nil {
				log.Fatal().Err(err).Msg("Seeding failed")
			}
			log.Info().Msg("Fixtures inserted")
		},
	}
}

func seed() error {
	cfg := config.DefaultServiceConfigFromEnv()

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec(`
		INSERT INTO user_assessments (user_id, course_id, status)
		VALUES
			('dev-user-1', 'course-1', 'not_started'),
			('dev-user-2', '444444', 'not_started')
		ON CONFLICT (user_id, course_id) DO NOTHING;
	`)
	return err
}
