package operations

// Stage identifiers, in execution order
const (
	StageIDDiscover = "discover"
	StageIDValidate = "validate"
	StageIDBuild    = "build"
	StageIDExport   = "export"
)

// Stage display names
const (
	StageNameDiscover = "Source Discovery"
	StageNameValidate = "Source Validation"
	StageNameBuild    = "Dataset Build"
	StageNameExport   = "Artifact Export"
)
