package validators

import "go.mongodb.org/mongo-driver/bson"

var SchoolValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"code",
			"name",
			"color",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"code": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 10,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"color": bson.M{
				"bsonType": "string",
				"pattern":  "^#[0-9a-fA-F]{6}$",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
