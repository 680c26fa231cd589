package database

import (
	"fmt"
	"log"

	"grading_center_backend/internal/config"
	"grading_center_backend/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig, migrate bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if migrate {
		err = db.AutoMigrate(
			&model.User{},
			&model.Exam{},
			&model.ExamQuestion{},
			&model.SubjectiveAnswer{},
			&model.MarkerScore{},
			&model.Arbitration{},
			&model.AnswerAttachment{},
		)

		if err != nil {
			return nil, err
		}

		log.Println("Database migration completed")
	}

	return db, nil
}

// SeedDemoData 开发模式下插入默认管理员与示例考试，便于前端联调
func SeedDemoData(db *gorm.DB) {
	var admins int64
	db.Model(&model.User{}).Where("role = ?", model.Admin).Count(&admins)
	if admins == 0 {
		hashed, err := bcrypt.GenerateFromPassword([]byte("admin123456"), bcrypt.DefaultCost)
		if err == nil {
			db.Create(&model.User{
				Name:     "系统管理员",
				Email:    "admin@grading.local",
				Password: string(hashed),
				Role:     model.Admin,
			})
		}
	}

	var count int64
	db.Model(&model.Exam{}).Count(&count)
	if count > 0 {
		return
	}

	exam := &model.Exam{
		Title:       "示例考试：数据结构期末",
		Description: "含三道主观题的示例考试",
		Published:   true,
	}
	if err := db.Create(exam).Error; err != nil {
		return
	}

	questions := []model.ExamQuestion{
		{ExamID: exam.ID, Content: "简述平衡二叉树的旋转操作", MaxScore: 10},
		{ExamID: exam.ID, Content: "比较快速排序与归并排序的适用场景", MaxScore: 15},
		{ExamID: exam.ID, Content: "设计一个 LRU 缓存并分析复杂度", MaxScore: 20, RequiredMarkerCount: 2},
	}
	for _, q := range questions {
		db.Create(&q)
	}
}
