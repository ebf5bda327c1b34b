package steps

// Ключи execution context, которые пишут стандартные шаги.
const (
	KeyFileRecord    = "file_record"
	KeyParsedData    = "parsed_data"
	KeyPOData        = "po_data"
	KeyMappedData    = "mapped_data"
	KeyValidatedData = "validated_data"
	KeyS3Result      = "s3_result"
	KeyRawCopy       = "raw_copy"

	// KeyInputData — выход последнего шага с Output.
	KeyInputData = "input_data"
)

// DefaultDefinitions возвращает стандартные определения шагов.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Name:       "extract_metadata",
			Capability: CapExtractMetadata,
			Output:     KeyFileRecord,
		},
		{
			Name:        "file_parse",
			Capability:  CapParseFileToJSON,
			Output:      KeyParsedData,
			Extract:     map[string]string{KeyPOData: KeyPOData},
			Materialize: true,
		},
		{
			Name:       "mapping",
			Capability: CapMapping,
			Input:      KeyInputData,
			Output:     KeyMappedData,
		},
		{
			Name:       "validation",
			Capability: CapValidation,
			Input:      KeyInputData,
			Output:     KeyValidatedData,
		},
		{
			Name:       "write_json_to_s3",
			Capability: CapWriteJSONToS3,
			Input:      KeyParsedData,
			Output:     KeyS3Result,
		},
		{
			Name:       "write_raw_to_s3",
			Capability: CapWriteRawToS3,
			Output:     KeyRawCopy,
		},
		{
			Name:       "publish_data",
			Capability: CapPublishData,
			Input:      KeyInputData,
		},
	}
}
