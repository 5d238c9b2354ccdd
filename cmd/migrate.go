package cmd

import (
	"fmt"
	"log"

	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/auth"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/config"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/database"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/repository"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run database migrations to create or update the database schema.
This command will:
- Create all required tables if they don't exist
- Update table schemas if needed
- Create indexes for optimal query performance
- Seed a default administrator account when the user table is empty

The command uses the database configuration from the config file or environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. 连接数据库
		log.Printf("Connecting to database: %s@%s:%d/%s",
			cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		defer func() {
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				sqlDB.Close()
			}
		}()

		// 3. 执行迁移
		log.Println("Running database migrations...")
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		// 4. 用户表为空时播种默认管理员
		seedPassword, _ := cmd.Flags().GetString("admin-password")
		if err := seedDefaultAdmin(db, seedPassword); err != nil {
			return fmt.Errorf("failed to seed default admin: %w", err)
		}

		log.Println("Database migrations completed successfully!")
		return nil
	},
}

// seedDefaultAdmin 用户表为空时创建 admin 账号,已有用户则跳过
func seedDefaultAdmin(db *gorm.DB, password string) error {
	userRepo := repository.NewUserRepository(db)

	count, err := userRepo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &model.User{
		Username:     "admin",
		PasswordHash: hash,
		Role:         workflow.RoleAdmin,
	}
	if err := userRepo.Create(admin); err != nil {
		return err
	}

	log.Println("Seeded default admin account (username: admin), change the password after first login")
	return nil
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().String("config", "", "Config file path (default: search in current directory, ./config, or $HOME/.maintain-gin)")
	migrateCmd.Flags().String("admin-password", "admin", "Initial password for the seeded admin account")
}
