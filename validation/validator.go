package validation

import (
	"context"
	"fmt"
	"log"

	"nipfinder/classification"
	"nipfinder/extractors"
	"nipfinder/models"
)

// Policy параметры проверки
type Policy struct {
	// RequireDomainValidation включает уровень привязки к домену
	RequireDomainValidation bool
	// RequireIdentityValidation включает семантическую проверку
	RequireIdentityValidation bool
	// IdentityThreshold минимальная уверенность классификатора
	IdentityThreshold float64
}

// DefaultPolicy строгая политика по умолчанию
func DefaultPolicy() Policy {
	return Policy{
		RequireDomainValidation:   true,
		RequireIdentityValidation: true,
		IdentityThreshold:         0.7,
	}
}

// NIPValidator трехуровневая проверка кандидата.
//
// Уровень 1 (контрольная сумма) обязателен, отказ терминален.
// Уровень 2 (привязка к домену) выполняется при известном домене;
// registry-домены дают состояние "пропущено", не отказ.
// Уровень 3 (семантическая идентичность) опционален и управляется
// политикой.
type NIPValidator struct {
	domainValidator   *DomainValidator
	identityValidator *classification.IdentityValidator
	policy            Policy
}

// NewNIPValidator создает валидатор. identityValidator может быть nil,
// тогда третий уровень пропускается.
func NewNIPValidator(domainValidator *DomainValidator, identityValidator *classification.IdentityValidator, policy Policy) *NIPValidator {
	return &NIPValidator{
		domainValidator:   domainValidator,
		identityValidator: identityValidator,
		policy:            policy,
	}
}

// ValidateInput контекст проверки кандидата
type ValidateInput struct {
	NIP         string
	CompanyName string
	City        string
	Domain      string
	// Данные источника для семантической проверки: найденное название,
	// сниппет, URL
	SourceData map[string]string
}

// Validate прогоняет кандидата через все уровни и собирает сводный вердикт
func (v *NIPValidator) Validate(ctx context.Context, input ValidateInput) *models.ValidationResult {
	result := &models.ValidationResult{}

	// Уровень 1: контрольная сумма, отказ терминален
	result.ChecksumValid = extractors.ValidateNIPChecksum(input.NIP)
	if !result.ChecksumValid {
		log.Printf("[Validator] Checksum failed for NIP %s", input.NIP)
		result.Validated = false
		result.Errors = append(result.Errors, "invalid NIP checksum")
		return result
	}

	// Уровень 2: привязка к домену
	if input.Domain != "" && v.policy.RequireDomainValidation && v.domainValidator != nil {
		result.DomainValid = v.domainValidator.CheckDomain(ctx, input.NIP, input.Domain, input.CompanyName)
		if result.DomainValid != nil && !*result.DomainValid {
			result.Errors = append(result.Errors, fmt.Sprintf("NIP not found on domain %s", input.Domain))
		}
	}

	// Уровень 3: семантическая идентичность
	if v.policy.RequireIdentityValidation && v.identityValidator != nil && v.identityValidator.Available() {
		verdict := v.identityValidator.ValidateCompanyIdentity(ctx, input.CompanyName, input.City, input.NIP, input.SourceData)
		identityOK := verdict.Valid && verdict.Confidence >= v.policy.IdentityThreshold
		result.IdentityValid = &identityOK
		result.IdentityScore = verdict.Confidence
		result.IdentityReason = verdict.Reasoning
		if !identityOK {
			result.Errors = append(result.Errors, fmt.Sprintf("identity check failed: %s", verdict.Reasoning))
		}
	}

	// Сводный вердикт: checksum AND (домен прошел или пропущен) AND
	// (идентичность прошла или не требовалась)
	domainOK := result.DomainValid == nil || *result.DomainValid
	identityOK := result.IdentityValid == nil || *result.IdentityValid
	result.Validated = result.ChecksumValid && domainOK && identityOK

	if result.Validated {
		log.Printf("[Validator] NIP %s fully validated", input.NIP)
	} else {
		log.Printf("[Validator] NIP %s failed validation: %v", input.NIP, result.Errors)
	}
	return result
}
