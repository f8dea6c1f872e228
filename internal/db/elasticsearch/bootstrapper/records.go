package bootstrapper

const RecordIndexName = "jellylog_records"

var recordIndex = map[string]interface{}{
	"settings": map[string]interface{}{
		"number_of_shards":   1,
		"number_of_replicas": 1,
		"analysis": map[string]interface{}{
			"analyzer": map[string]interface{}{
				"message_analyzer": map[string]interface{}{
					"type":      "custom",
					"tokenizer": "standard",
					"filter":    []string{"lowercase", "stop"},
				},
			},
		},
	},
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"run_id": map[string]interface{}{
				"type": "keyword",
			},
			"created_at": map[string]interface{}{
				"type": "date",
			},
			"instant": map[string]interface{}{
				"type": "date",
			},
			"timestamp": map[string]interface{}{
				"type": "keyword",
			},
			"file": map[string]interface{}{
				"type": "keyword",
			},
			"line_number": map[string]interface{}{
				"type": "integer",
			},
			"category": map[string]interface{}{
				"type": "keyword",
			},
			"kind": map[string]interface{}{
				"type": "keyword",
			},
			"level": map[string]interface{}{
				"type": "keyword",
			},
			"source_category": map[string]interface{}{
				"type": "keyword",
			},
			"message": map[string]interface{}{
				"type":     "text",
				"analyzer": "message_analyzer",
			},
			"exception": map[string]interface{}{
				"type": "text",
			},
			"details": map[string]interface{}{
				"type": "flattened",
			},
		},
	},
}
