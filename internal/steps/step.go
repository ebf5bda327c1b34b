package steps

import (
	"context"
	"errors"

	"github.com/shaiso/Datahub/internal/domain"
)

// Ошибки registry.
var (
	// ErrUnknownStep — имя шага не зарегистрировано.
	ErrUnknownStep = errors.New("unknown step")

	// ErrUnknownCapability — capability вне закрытого набора или без функции.
	ErrUnknownCapability = errors.New("unknown capability")

	// ErrMaterializeWithoutOutput — Materialize без Output.
	ErrMaterializeWithoutOutput = errors.New("materialize requires output key")

	// ErrDuplicateStep — два определения с одним именем.
	ErrDuplicateStep = errors.New("duplicate step definition")

	// ErrEmptyStepName — определение без имени.
	ErrEmptyStepName = errors.New("step has empty name")
)

// Ошибки capability.
var (
	// ErrEmptyInput — шаг получил пустой payload.
	ErrEmptyInput = errors.New("empty input payload")

	// ErrCategoryNotSupported — capability не применяется к категории документа.
	ErrCategoryNotSupported = errors.New("capability not supported for document category")
)

// Capability — закрытый набор операций, которые может выполнить шаг.
type Capability string

const (
	CapExtractMetadata Capability = "extract_metadata"
	CapParseFileToJSON Capability = "parse_file_to_json"
	CapMapping         Capability = "mapping"
	CapValidation      Capability = "validation"
	CapWriteJSONToS3   Capability = "write_json_to_s3"
	CapWriteRawToS3    Capability = "write_raw_to_s3"
	CapPublishData     Capability = "publish_data"
)

// Capabilities — все известные capability.
var Capabilities = []Capability{
	CapExtractMetadata,
	CapParseFileToJSON,
	CapMapping,
	CapValidation,
	CapWriteJSONToS3,
	CapWriteRawToS3,
	CapPublishData,
}

// Func — единая сигнатура capability.
//
// args собираются dispatcher'ом из execution context по Inputs/Input
// определения. Ошибка и panic не выходят за пределы dispatcher'а.
type Func func(ctx context.Context, run *Run, args []any) (any, error)

// Definition — статическое описание шага.
type Definition struct {
	// Name — имя шага в удалённом workflow (stepName).
	Name string

	// Capability — операция, которую выполняет шаг.
	Capability Capability

	// Inputs — явные ключи context для аргументов (в порядке аргументов).
	Inputs []string

	// Input — единственный неявный ключ, если Inputs пуст.
	Input string

	// Output — ключ context для результата. Пустой — результат не сохраняется.
	Output string

	// Extract — дополнительные ключи context, в каждый пишется весь результат.
	Extract map[string]string

	// Materialize — записать результат в blob store после шага.
	Materialize bool
}

// ArgKeys возвращает ключи context, из которых берутся аргументы.
func (d Definition) ArgKeys() []string {
	if len(d.Inputs) > 0 {
		return d.Inputs
	}
	if d.Input != "" {
		return []string{d.Input}
	}
	return nil
}

// Run — данные одного run, доступные capability.
//
// Заполняется из результата классификатора и дальше не меняется.
type Run struct {
	ID       string
	FilePath string
	Source   domain.SourceType
	Record   domain.FileRecord
	Category domain.DocumentCategory
	Size     int64
	Content  []byte
}

// firstArg возвращает первый аргумент или nil.
func firstArg(args []any) any {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}
