package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingAttemptValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"draft_id",
			"scope",
			"hotel_id",
			"check_in",
			"check_out",
			"room_selections",
			"outcome",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"draft_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"scope": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"hotel_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"check_in": bson.M{
				"bsonType": "date",
			},

			"check_out": bson.M{
				"bsonType": "date",
			},

			"room_selections": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"roomtype", "numrooms"},
					"properties": bson.M{
						"roomtype": bson.M{"bsonType": "string"},
						"numrooms": bson.M{
							"bsonType": "int",
							"minimum":  1,
							"maximum":  10,
						},
					},
				},
			},

			"quoted_total": bson.M{
				"bsonType": []string{"double", "int", "long"},
				"minimum":  0,
			},

			"outcome": bson.M{
				"bsonType": "string",
				"enum": []string{
					"created",
					"failed",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
