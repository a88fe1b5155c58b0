package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/anoixa/folio/database"
	"github.com/anoixa/folio/database/models"
)

// migrateCmd 数据库结构迁移
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tools",
	Long:  `Apply the schema to the configured database. Use "migrate copy" to move data between databases.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.NewDB(cfg)
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
		logger.Info("Schema migrated", slog.String("type", cfg.DBType))
		return nil
	},
}

// migrateCopyCmd 在两个数据库之间复制数据
var migrateCopyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy data from one database to another",
	Long: `Copy images, galleries and gallery memberships from a source to a target database.

Examples:
  # Migrate from SQLite to PostgreSQL
  folio migrate copy --from-sqlite ./data/folio.db --to-postgres "host=localhost user=postgres password=secret dbname=folio port=5432"

  # Replace rows that already exist in the target
  folio migrate copy --from-sqlite ./data/folio.db --to-postgres "..." --on-conflict=overwrite`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fromSQLite, _ := cmd.Flags().GetString("from-sqlite")
		toSQLite, _ := cmd.Flags().GetString("to-sqlite")
		toPostgres, _ := cmd.Flags().GetString("to-postgres")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		onConflict, _ := cmd.Flags().GetString("on-conflict")

		strategy, err := conflictClause(onConflict)
		if err != nil {
			return err
		}
		if fromSQLite == "" {
			return fmt.Errorf("--from-sqlite is required")
		}
		if (toSQLite == "") == (toPostgres == "") {
			return fmt.Errorf("exactly one of --to-sqlite or --to-postgres is required")
		}
		if toSQLite == fromSQLite {
			return fmt.Errorf("source and target databases are the same")
		}

		source, err := database.OpenSQLite(fromSQLite)
		if err != nil {
			return fmt.Errorf("failed to connect to source database: %w", err)
		}
		defer database.Close(source)

		var target *gorm.DB
		if toPostgres != "" {
			target, err = gorm.Open(postgres.Open(toPostgres), &gorm.Config{
				Logger:         logger.Default.LogMode(logger.Silent),
				TranslateError: true,
			})
		} else {
			target, err = database.OpenSQLite(toSQLite)
		}
		if err != nil {
			return fmt.Errorf("failed to connect to target database: %w", err)
		}
		defer database.Close(target)

		stats, err := copyDatabase(cmd.Context(), source, target, batchSize, strategy)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "images: %d, galleries: %d, gallery_images: %d\n",
			stats.images, stats.galleries, stats.members)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateCopyCmd)

	migrateCopyCmd.Flags().String("from-sqlite", "", "Source SQLite file path")
	migrateCopyCmd.Flags().String("to-sqlite", "", "Target SQLite file path")
	migrateCopyCmd.Flags().String("to-postgres", "", "Target PostgreSQL connection string")
	migrateCopyCmd.Flags().Int("batch-size", 100, "Batch size for data migration")
	migrateCopyCmd.Flags().String("on-conflict", "skip", "Conflict resolution strategy: skip (default), overwrite, error")
}

// migrateStats 迁移统计
type migrateStats struct {
	images    int64
	galleries int64
	members   int64
}

// conflictClause skip/overwrite/error 对应的插入策略，error 时返回 nil
func conflictClause(onConflict string) (*clause.OnConflict, error) {
	switch onConflict {
	case "", "skip":
		return &clause.OnConflict{DoNothing: true}, nil
	case "overwrite":
		return &clause.OnConflict{UpdateAll: true}, nil
	case "error":
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid on-conflict strategy: %s (must be skip, overwrite, or error)", onConflict)
	}
}

// copyDatabase 按外键顺序复制：images → galleries → gallery_images
func copyDatabase(ctx context.Context, source, target *gorm.DB, batchSize int, onConflict *clause.OnConflict) (*migrateStats, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	if err := database.AutoMigrate(target); err != nil {
		return nil, fmt.Errorf("failed to migrate target schema: %w", err)
	}

	stats := &migrateStats{}
	insert := func(tx *gorm.DB) *gorm.DB {
		tx = tx.WithContext(ctx).Omit(clause.Associations)
		if onConflict != nil {
			tx = tx.Clauses(*onConflict)
		}
		return tx
	}

	var imgs []models.Image
	err := source.WithContext(ctx).Order("id").FindInBatches(&imgs, batchSize, func(_ *gorm.DB, _ int) error {
		res := insert(target).Create(&imgs)
		stats.images += res.RowsAffected
		return res.Error
	}).Error
	if err != nil {
		return stats, fmt.Errorf("images: %w", err)
	}

	var gals []models.Gallery
	err = source.WithContext(ctx).Order("id").FindInBatches(&gals, batchSize, func(_ *gorm.DB, _ int) error {
		res := insert(target).Create(&gals)
		stats.galleries += res.RowsAffected
		return res.Error
	}).Error
	if err != nil {
		return stats, fmt.Errorf("galleries: %w", err)
	}

	// 同一相册的成员必须整体写入，否则 overwrite 时 position 唯一约束可能冲突
	var galleryIDs []string
	if err := source.WithContext(ctx).Model(&models.Gallery{}).Order("id").Pluck("id", &galleryIDs).Error; err != nil {
		return stats, fmt.Errorf("gallery_images: %w", err)
	}
	for _, gid := range galleryIDs {
		var members []models.GalleryImage
		if err := source.WithContext(ctx).Where("gallery_id = ?", gid).Order("position").Find(&members).Error; err != nil {
			return stats, fmt.Errorf("gallery_images: %w", err)
		}
		if len(members) == 0 {
			continue
		}
		err := target.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if onConflict != nil && onConflict.UpdateAll {
				if err := tx.Where("gallery_id = ?", gid).Delete(&models.GalleryImage{}).Error; err != nil {
					return err
				}
			}
			res := insert(tx).Create(&members)
			stats.members += res.RowsAffected
			return res.Error
		})
		if err != nil {
			return stats, fmt.Errorf("gallery_images of %s: %w", gid, err)
		}
	}

	return stats, nil
}
