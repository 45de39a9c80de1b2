package account

import (
	"context"
	"time"

	"github.com/kbukum/careerauth/database"
	"github.com/kbukum/careerauth/encryption"
	apperrors "github.com/kbukum/careerauth/errors"
)

// resourceName is used in not-found and conflict errors.
const resourceName = "account"

// Profile attributes persisted only as encrypted siblings.
const (
	fieldName  = "name"
	fieldPhone = "phone"
)

// Repository persists credential records. Lookups of a missing account
// return a 404 AppError; creating a duplicate email returns a 409.
type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) error
}

// accountRecord is the GORM model. Name and Phone exist only as their
// encrypted siblings.
type accountRecord struct {
	ID                 string `gorm:"primaryKey;size:36"`
	Email              string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash       string `gorm:"not null"`
	SecurityQuestion   string `gorm:"not null"`
	SecurityAnswerHash string `gorm:"column:security_answer;not null"`

	NameEncrypted  string `gorm:"column:name_encrypted"`
	NameIV         string `gorm:"column:name_iv"`
	NameAuth       string `gorm:"column:name_auth"`
	PhoneEncrypted string `gorm:"column:phone_encrypted"`
	PhoneIV        string `gorm:"column:phone_iv"`
	PhoneAuth      string `gorm:"column:phone_auth"`

	CreatedAt         time.Time
	UpdatedAt         time.Time
	PasswordChangedAt *time.Time
}

func (accountRecord) TableName() string { return "accounts" }

// Models returns the GORM models to auto-migrate.
func Models() []interface{} {
	return []interface{}{&accountRecord{}}
}

// GormRepository is a Repository over GORM.
type GormRepository struct {
	db  *database.DB
	enc encryption.Encryptor
}

// NewGormRepository creates a repository that encrypts profile fields with enc.
func NewGormRepository(db *database.DB, enc encryption.Encryptor) *GormRepository {
	return &GormRepository{db: db, enc: enc}
}

// Create inserts a new account.
func (r *GormRepository) Create(ctx context.Context, a *Account) error {
	rec, err := r.toRecord(a)
	if err != nil {
		return apperrors.Internal(err)
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return database.FromDatabase(err, resourceName)
	}
	a.CreatedAt = rec.CreatedAt
	a.UpdatedAt = rec.UpdatedAt
	return nil
}

// GetByEmail loads an account by its normalized email.
func (r *GormRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	var rec accountRecord
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&rec).Error; err != nil {
		return nil, database.FromDatabase(err, resourceName)
	}
	return r.fromRecord(&rec), nil
}

// GetByID loads an account by id.
func (r *GormRepository) GetByID(ctx context.Context, id string) (*Account, error) {
	var rec accountRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, database.FromDatabase(err, resourceName)
	}
	return r.fromRecord(&rec), nil
}

// UpdatePassword replaces the password hash and records when it changed.
func (r *GormRepository) UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&accountRecord{}).Where("id = ?", id).Updates(map[string]interface{}{
		"password_hash":       hash,
		"password_changed_at": changedAt,
	})
	if res.Error != nil {
		return database.FromDatabase(res.Error, resourceName)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(resourceName, id)
	}
	return nil
}

func (r *GormRepository) toRecord(a *Account) (*accountRecord, error) {
	rec := &accountRecord{
		ID:                 a.ID,
		Email:              a.Email,
		PasswordHash:       a.PasswordHash,
		SecurityQuestion:   a.SecurityQuestion,
		SecurityAnswerHash: a.SecurityAnswerHash,
		PasswordChangedAt:  a.PasswordChangedAt,
	}

	profile := map[string]any{}
	if a.Name != "" {
		profile[fieldName] = a.Name
	}
	if a.Phone != "" {
		profile[fieldPhone] = a.Phone
	}
	if err := encryption.EncryptFields(r.enc, profile, fieldName, fieldPhone); err != nil {
		return nil, err
	}
	rec.NameEncrypted, rec.NameIV, rec.NameAuth = siblings(profile, fieldName)
	rec.PhoneEncrypted, rec.PhoneIV, rec.PhoneAuth = siblings(profile, fieldPhone)
	return rec, nil
}

func (r *GormRepository) fromRecord(rec *accountRecord) *Account {
	a := &Account{
		ID:                 rec.ID,
		Email:              rec.Email,
		PasswordHash:       rec.PasswordHash,
		SecurityQuestion:   rec.SecurityQuestion,
		SecurityAnswerHash: rec.SecurityAnswerHash,
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
		PasswordChangedAt:  rec.PasswordChangedAt,
	}

	profile := map[string]any{}
	var fields []string
	if rec.NameEncrypted != "" {
		setSiblings(profile, fieldName, rec.NameEncrypted, rec.NameIV, rec.NameAuth)
		fields = append(fields, fieldName)
	}
	if rec.PhoneEncrypted != "" {
		setSiblings(profile, fieldPhone, rec.PhoneEncrypted, rec.PhoneIV, rec.PhoneAuth)
		fields = append(fields, fieldPhone)
	}
	encryption.DecryptFields(r.enc, profile, fields...)
	a.Name, _ = profile[fieldName].(string)
	a.Phone, _ = profile[fieldPhone].(string)
	return a
}

func siblings(record map[string]any, field string) (ciphertext, iv, tag string) {
	ciphertext, _ = record[field+encryption.SuffixCiphertext].(string)
	iv, _ = record[field+encryption.SuffixIV].(string)
	tag, _ = record[field+encryption.SuffixAuthTag].(string)
	return ciphertext, iv, tag
}

func setSiblings(record map[string]any, field, ciphertext, iv, tag string) {
	record[field+encryption.SuffixCiphertext] = ciphertext
	record[field+encryption.SuffixIV] = iv
	record[field+encryption.SuffixAuthTag] = tag
}
