package models

// StoryFields is the fixed field set an update replaces on a success story
var StoryFields = []string{
	"coupleImage",
	"reviewStar",
	"review",
	"selfBiodataId",
	"partnerBiodataId",
	"marriageDate",
}

// CreatedAtField orders stories newest first
const CreatedAtField = "createdAt"
