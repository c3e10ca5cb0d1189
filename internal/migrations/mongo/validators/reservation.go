package validators

import "go.mongodb.org/mongo-driver/bson"

var ReservationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"lab_id",
			"start_time",
			"end_time",
			"subject",
			"type",
			"status",
			"created_by",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"lab_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"subject": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 200,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"CLASS",
					"EVENT",
				},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"CONFIRMED",
					"OCCUPIED",
					"COMPLETED",
					"CANCELLED",
				},
			},

			"check_in_time": bson.M{
				"bsonType": "date",
			},

			"check_out_time": bson.M{
				"bsonType": "date",
			},

			"school_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"created_by": bson.M{
				"bsonType": "object",
				"required": []string{"id", "display_name"},
				"properties": bson.M{
					"id": bson.M{
						"bsonType": "string",
					},
					"display_name": bson.M{
						"bsonType": "string",
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
