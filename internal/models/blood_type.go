package models

import "strings"

type BloodType string

const (
	BloodTypeAPos  BloodType = "A+"
	BloodTypeANeg  BloodType = "A-"
	BloodTypeBPos  BloodType = "B+"
	BloodTypeBNeg  BloodType = "B-"
	BloodTypeABPos BloodType = "AB+"
	BloodTypeABNeg BloodType = "AB-"
	BloodTypeOPos  BloodType = "O+"
	BloodTypeONeg  BloodType = "O-"

	// BloodTypeAny matches donors of every type. It is only meaningful as a
	// search criterion, never as a donor's or request's own type.
	BloodTypeAny BloodType = "any"
)

var concreteBloodTypes = []BloodType{
	BloodTypeAPos, BloodTypeANeg,
	BloodTypeBPos, BloodTypeBNeg,
	BloodTypeABPos, BloodTypeABNeg,
	BloodTypeOPos, BloodTypeONeg,
}

func AllBloodTypes() []BloodType {
	out := make([]BloodType, len(concreteBloodTypes))
	copy(out, concreteBloodTypes)
	return out
}

// ParseBloodType normalizes case and surrounding whitespace. It does not
// validate; use IsConcrete or IsValidCriterion on the result.
func ParseBloodType(s string) BloodType {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(BloodTypeAny)) {
		return BloodTypeAny
	}
	return BloodType(strings.ToUpper(s))
}

func (b BloodType) IsConcrete() bool {
	for _, t := range concreteBloodTypes {
		if b == t {
			return true
		}
	}
	return false
}

func (b BloodType) IsValidCriterion() bool {
	return b == BloodTypeAny || b.IsConcrete()
}

func (b BloodType) String() string {
	return string(b)
}
