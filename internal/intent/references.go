package intent

import (
	"fmt"
	"os"
	"strings"

	apperrors "intent-service/internal/common/errors"

	"gopkg.in/yaml.v3"
)

// DefaultReferenceSetVersion identifies the built-in anchor set.
const DefaultReferenceSetVersion = "2024.1"

// ReferenceSet is a versioned list of anchors. It is never mutated once loaded.
type ReferenceSet struct {
	Version  string
	Examples []ReferenceExample
}

// DefaultReferences returns the production anchor set.
func DefaultReferences() ReferenceSet {
	delivery := []string{
		"Вопрос о доставке через транспортную компанию",
		"Когда доставят заказ",
		"Отследить доставку",
		"Отследить доставку заказа",
		"Трек номер доставки",
		"Статус доставки заказа",
		"Где находится заказ в пути",
		"Транспортная компания доставка",
		"Отслеживание посылки",
		"Где мой заказ в доставке",
		"Трек номер",
		"Отследить посылку",
	}
	orderInfo := []string{
		"Вопрос о заказе общая информация",
		"Статус заказа",
		"Информация о заказе",
		"Хочу узнать про заказ",
		"Мой заказ информация",
		"Проверить заказ",
		"Детали заказа",
		"Информация о моем заказе",
	}

	examples := make([]ReferenceExample, 0, len(delivery)+len(orderInfo))
	for _, t := range orderInfo {
		examples = append(examples, ReferenceExample{Text: t, Label: OrderInfo})
	}
	for _, t := range delivery {
		examples = append(examples, ReferenceExample{Text: t, Label: Delivery})
	}
	return ReferenceSet{Version: DefaultReferenceSetVersion, Examples: examples}
}

type referenceFile struct {
	Version string              `yaml:"version"`
	Intents map[string][]string `yaml:"intents"`
}

// LoadReferences reads an anchor set from a yaml file of the form
//
//	version: "2025.2"
//	intents:
//	  ORDER_INFO: ["Статус заказа", ...]
//	  DELIVERY: ["Трек номер", ...]
//
// Examples are ordered by label declaration order, then file order.
func LoadReferences(path string) (ReferenceSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ReferenceSet{}, apperrors.NewReferenceSetInvalidError(fmt.Sprintf("read %s: %v", path, err))
	}
	return ParseReferences(data)
}

// ParseReferences decodes the yaml form accepted by LoadReferences.
func ParseReferences(data []byte) (ReferenceSet, error) {
	var f referenceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return ReferenceSet{}, apperrors.NewReferenceSetInvalidError(fmt.Sprintf("decode: %v", err))
	}

	byLabel := make(map[Label][]string, len(f.Intents))
	for name, texts := range f.Intents {
		label, err := ParseLabel(name)
		if err != nil {
			return ReferenceSet{}, apperrors.NewReferenceSetInvalidError(err.Error())
		}
		if !label.Nominal() {
			return ReferenceSet{}, apperrors.NewReferenceSetInvalidError(fmt.Sprintf("%s cannot have reference examples", label))
		}
		if len(texts) == 0 {
			return ReferenceSet{}, apperrors.NewReferenceSetInvalidError(fmt.Sprintf("%s has no examples", label))
		}
		byLabel[label] = texts
	}

	set := ReferenceSet{Version: f.Version}
	for _, label := range NominalLabels {
		for _, t := range byLabel[label] {
			set.Examples = append(set.Examples, ReferenceExample{Text: t, Label: label})
		}
	}

	if err := set.Validate(); err != nil {
		return ReferenceSet{}, err
	}
	return set, nil
}

// Validate checks that the set is usable as classifier anchors.
func (s ReferenceSet) Validate() error {
	if len(s.Examples) == 0 {
		return apperrors.NewReferenceSetInvalidError("reference set is empty")
	}
	for i, ex := range s.Examples {
		if !ex.Label.Nominal() {
			return apperrors.NewReferenceSetInvalidError(fmt.Sprintf("example %d: label %s is not a nominal intent", i, ex.Label))
		}
		if strings.TrimSpace(ex.Text) == "" {
			return apperrors.NewReferenceSetInvalidError(fmt.Sprintf("example %d (%s): empty text", i, ex.Label))
		}
	}
	return nil
}

// Count returns the number of examples per label.
func (s ReferenceSet) Count() map[Label]int {
	counts := make(map[Label]int, len(NominalLabels))
	for _, ex := range s.Examples {
		counts[ex.Label]++
	}
	return counts
}
