package repository

import "encoding/json"

// jsonValue marshals v for a JSONB column; nil input becomes an empty object.
func jsonValue(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}

// jsonScan unmarshals a JSONB column into out, tolerating NULL/empty values.
func jsonScan(data []byte, out interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
