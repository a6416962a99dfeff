package service

import (
	"errors"

	"lms_backend/internal/repository"

	"gorm.io/gorm"
)

// notFoundOr 把存储层的未找到错误替换为业务错误
func notFoundOr(err, notFound error) error {
	if isNotFound(err) {
		return notFound
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, repository.ErrDocumentNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func offsetOf(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
