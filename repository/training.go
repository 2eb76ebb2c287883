package repository

import (
	"context"
	"log/slog"

	"github.com/agencydesk/console/models"
	"gorm.io/gorm"
)

// Category operations

func (r *GORMRepository) CreateCategory(ctx context.Context, category *models.TrainingCategory) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		slog.Error("Failed to create training category", "error", err)
		return err
	}
	slog.Info("Training category created", "category_id", category.ID, "name", category.Name)
	return nil
}

func (r *GORMRepository) GetCategories(ctx context.Context, agencyID string) ([]models.TrainingCategory, error) {
	var categories []models.TrainingCategory
	err := r.db.WithContext(ctx).Where("agency_id = ?", agencyID).Order("sort_order, name").Find(&categories).Error
	if err != nil {
		slog.Error("Failed to get training categories", "error", err, "agency_id", agencyID)
		return nil, err
	}
	return categories, nil
}

func (r *GORMRepository) GetCategoryByID(ctx context.Context, agencyID, id string) (*models.TrainingCategory, error) {
	var category models.TrainingCategory
	err := r.db.WithContext(ctx).Where("id = ? AND agency_id = ?", id, agencyID).First(&category).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get training category", "error", err, "category_id", id)
		return nil, err
	}
	return &category, nil
}

func (r *GORMRepository) UpdateCategory(ctx context.Context, category *models.TrainingCategory) error {
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		slog.Error("Failed to update training category", "error", err, "category_id", category.ID)
		return err
	}
	return nil
}

// deleteQuizzesForLessons soft-deletes the quizzes attached to the given
// lessons together with their questions.
func deleteQuizzesForLessons(tx *gorm.DB, lessonIDs []string) error {
	var quizIDs []string
	if err := tx.Model(&models.Quiz{}).Where("lesson_id IN ?", lessonIDs).Pluck("id", &quizIDs).Error; err != nil {
		return err
	}
	if len(quizIDs) > 0 {
		if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&models.QuizQuestion{}).Error; err != nil {
			return err
		}
	}
	return tx.Where("lesson_id IN ?", lessonIDs).Delete(&models.Quiz{}).Error
}

// DeleteCategory removes a category and its whole subtree (modules, lessons,
// quizzes) via soft delete.
func (r *GORMRepository) DeleteCategory(ctx context.Context, agencyID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var moduleIDs []string
		if err := tx.Model(&models.TrainingModule{}).Where("category_id = ? AND agency_id = ?", id, agencyID).Pluck("id", &moduleIDs).Error; err != nil {
			return err
		}
		if len(moduleIDs) > 0 {
			var lessonIDs []string
			if err := tx.Model(&models.TrainingLesson{}).Where("module_id IN ?", moduleIDs).Pluck("id", &lessonIDs).Error; err != nil {
				return err
			}
			if len(lessonIDs) > 0 {
				if err := deleteQuizzesForLessons(tx, lessonIDs); err != nil {
					return err
				}
				if err := tx.Where("id IN ?", lessonIDs).Delete(&models.TrainingLesson{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("id IN ?", moduleIDs).Delete(&models.TrainingModule{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("id = ? AND agency_id = ?", id, agencyID).Delete(&models.TrainingCategory{}).Error; err != nil {
			return err
		}
		slog.Info("Training category deleted", "category_id", id, "modules_removed", len(moduleIDs))
		return nil
	})
}

// Module operations

func (r *GORMRepository) CreateModule(ctx context.Context, module *models.TrainingModule) error {
	if err := r.db.WithContext(ctx).Create(module).Error; err != nil {
		slog.Error("Failed to create training module", "error", err)
		return err
	}
	slog.Info("Training module created", "module_id", module.ID, "name", module.Name)
	return nil
}

func (r *GORMRepository) GetModules(ctx context.Context, agencyID, categoryID string) ([]models.TrainingModule, error) {
	var modules []models.TrainingModule
	query := r.db.WithContext(ctx).Where("agency_id = ?", agencyID)
	if categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if err := query.Order("sort_order, name").Find(&modules).Error; err != nil {
		slog.Error("Failed to get training modules", "error", err, "agency_id", agencyID)
		return nil, err
	}
	return modules, nil
}

func (r *GORMRepository) GetModuleByID(ctx context.Context, agencyID, id string) (*models.TrainingModule, error) {
	var module models.TrainingModule
	err := r.db.WithContext(ctx).Where("id = ? AND agency_id = ?", id, agencyID).First(&module).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get training module", "error", err, "module_id", id)
		return nil, err
	}
	return &module, nil
}

func (r *GORMRepository) UpdateModule(ctx context.Context, module *models.TrainingModule) error {
	if err := r.db.WithContext(ctx).Save(module).Error; err != nil {
		slog.Error("Failed to update training module", "error", err, "module_id", module.ID)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteModule(ctx context.Context, agencyID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lessonIDs []string
		if err := tx.Model(&models.TrainingLesson{}).Where("module_id = ? AND agency_id = ?", id, agencyID).Pluck("id", &lessonIDs).Error; err != nil {
			return err
		}
		if len(lessonIDs) > 0 {
			if err := deleteQuizzesForLessons(tx, lessonIDs); err != nil {
				return err
			}
			if err := tx.Where("id IN ?", lessonIDs).Delete(&models.TrainingLesson{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("id = ? AND agency_id = ?", id, agencyID).Delete(&models.TrainingModule{}).Error; err != nil {
			return err
		}
		slog.Info("Training module deleted", "module_id", id, "lessons_removed", len(lessonIDs))
		return nil
	})
}

// Lesson operations

func (r *GORMRepository) CreateLesson(ctx context.Context, lesson *models.TrainingLesson) error {
	if err := r.db.WithContext(ctx).Create(lesson).Error; err != nil {
		slog.Error("Failed to create training lesson", "error", err)
		return err
	}
	slog.Info("Training lesson created", "lesson_id", lesson.ID, "title", lesson.Title)
	return nil
}

func (r *GORMRepository) GetLessons(ctx context.Context, agencyID, moduleID string) ([]models.TrainingLesson, error) {
	var lessons []models.TrainingLesson
	query := r.db.WithContext(ctx).Where("agency_id = ?", agencyID)
	if moduleID != "" {
		query = query.Where("module_id = ?", moduleID)
	}
	if err := query.Order("sort_order").Find(&lessons).Error; err != nil {
		slog.Error("Failed to get training lessons", "error", err, "agency_id", agencyID)
		return nil, err
	}
	return lessons, nil
}

func (r *GORMRepository) GetLessonByID(ctx context.Context, agencyID, id string) (*models.TrainingLesson, error) {
	var lesson models.TrainingLesson
	err := r.db.WithContext(ctx).Where("id = ? AND agency_id = ?", id, agencyID).Preload("Quiz").Preload("Quiz.Questions").First(&lesson).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get training lesson", "error", err, "lesson_id", id)
		return nil, err
	}
	return &lesson, nil
}

func (r *GORMRepository) UpdateLesson(ctx context.Context, lesson *models.TrainingLesson) error {
	if err := r.db.WithContext(ctx).Save(lesson).Error; err != nil {
		slog.Error("Failed to update training lesson", "error", err, "lesson_id", lesson.ID)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteLesson(ctx context.Context, agencyID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteQuizzesForLessons(tx, []string{id}); err != nil {
			return err
		}
		if err := tx.Where("id = ? AND agency_id = ?", id, agencyID).Delete(&models.TrainingLesson{}).Error; err != nil {
			return err
		}
		slog.Info("Training lesson deleted", "lesson_id", id)
		return nil
	})
}

// ReorderLessons applies sort order by position within a module.
func (r *GORMRepository) ReorderLessons(ctx context.Context, agencyID, moduleID string, lessonIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, lessonID := range lessonIDs {
			res := tx.Model(&models.TrainingLesson{}).
				Where("id = ? AND module_id = ? AND agency_id = ?", lessonID, moduleID, agencyID).
				Update("sort_order", i)
			if res.Error != nil {
				return res.Error
			}
		}
		return nil
	})
}

// Quiz operations

func (r *GORMRepository) CreateQuiz(ctx context.Context, quiz *models.Quiz) error {
	if err := r.db.WithContext(ctx).Create(quiz).Error; err != nil {
		slog.Error("Failed to create quiz", "error", err)
		return err
	}
	slog.Info("Quiz created", "quiz_id", quiz.ID, "lesson_id", quiz.LessonID)
	return nil
}

func (r *GORMRepository) GetQuizByLesson(ctx context.Context, agencyID, lessonID string) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.db.WithContext(ctx).Where("lesson_id = ? AND agency_id = ?", lessonID, agencyID).Preload("Questions").First(&quiz).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get quiz", "error", err, "lesson_id", lessonID)
		return nil, err
	}
	return &quiz, nil
}

func (r *GORMRepository) UpdateQuiz(ctx context.Context, quiz *models.Quiz) error {
	if err := r.db.WithContext(ctx).Save(quiz).Error; err != nil {
		slog.Error("Failed to update quiz", "error", err, "quiz_id", quiz.ID)
		return err
	}
	return nil
}

func (r *GORMRepository) CreateQuizQuestion(ctx context.Context, question *models.QuizQuestion) error {
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		slog.Error("Failed to create quiz question", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteQuizQuestion(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.QuizQuestion{}).Error; err != nil {
		slog.Error("Failed to delete quiz question", "error", err, "question_id", id)
		return err
	}
	return nil
}

// Usage counts for delete confirmation

func (r *GORMRepository) CountModulesInCategory(ctx context.Context, agencyID, categoryID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TrainingModule{}).
		Where("category_id = ? AND agency_id = ?", categoryID, agencyID).Count(&count).Error
	if err != nil {
		slog.Error("Failed to count modules in category", "error", err, "category_id", categoryID)
		return 0, err
	}
	return count, nil
}

func (r *GORMRepository) CountLessonsInModule(ctx context.Context, agencyID, moduleID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TrainingLesson{}).
		Where("module_id = ? AND agency_id = ?", moduleID, agencyID).Count(&count).Error
	if err != nil {
		slog.Error("Failed to count lessons in module", "error", err, "module_id", moduleID)
		return 0, err
	}
	return count, nil
}

func (r *GORMRepository) CountCompletionsForLesson(ctx context.Context, agencyID, lessonID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LessonCompletion{}).
		Where("lesson_id = ? AND agency_id = ?", lessonID, agencyID).Count(&count).Error
	if err != nil {
		slog.Error("Failed to count completions for lesson", "error", err, "lesson_id", lessonID)
		return 0, err
	}
	return count, nil
}
