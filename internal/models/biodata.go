package models

// Biodata documents are free-form; only these fields are owned by the server.
const (
	BiodataIDField    = "biodataId"
	ContactEmailField = "contactEmail"
	MemberTypeField   = "memberType"
	BiodataTypeField  = "biodataType"
)

// Values of BiodataTypeField
const (
	BiodataMale   = "Male"
	BiodataFemale = "Female"
)

// ServerOwnedBiodataFields may not be set by clients on create or update
var ServerOwnedBiodataFields = []string{"_id", BiodataIDField, ContactEmailField, MemberTypeField}
