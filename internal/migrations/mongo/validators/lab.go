package validators

import "go.mongodb.org/mongo-driver/bson"

var LabValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"capacity",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"capacity": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  500,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"permanent": bson.M{
				"bsonType": "bool",
			},

			"software": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType":  "string",
					"minLength": 1,
					"maxLength": 100,
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
