// File: internal/services/npc/record_test.go
package npc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecordJSON(t *testing.T, mutate func(map[string]interface{})) []byte {
	t.Helper()
	record := map[string]interface{}{
		"name":         "Maera Thistledown",
		"race":         "Halfling",
		"class":        "Rogue",
		"level":        4,
		"strength":     8,
		"dexterity":    17,
		"constitution": 12,
		"intelligence": 13,
		"wisdom":       11,
		"charisma":     15,
		"actions": []map[string]string{
			{"name": "Sneak Attack", "description": "Deals extra damage when hidden."},
			{"name": "Dagger Throw", "description": "Ranged attack with a thrown dagger."},
		},
		"background":         "Former guild courier turned informant.",
		"personality_traits": []string{"curious", "quick to bargain"},
		"equipment":          []string{"daggers", "thieves' tools"},
		"skills":             []string{"Stealth", "Sleight of Hand"},
		"languages":          []string{"Common", "Halfling"},
		"appearance":         "Short, wiry, with ink-stained fingers.",
	}
	if mutate != nil {
		mutate(record)
	}
	data, err := json.Marshal(record)
	require.NoError(t, err)
	return data
}

func TestParseRecord(t *testing.T) {
	t.Run("accepts a complete record", func(t *testing.T) {
		record, err := ParseRecord(validRecordJSON(t, nil))
		require.NoError(t, err)
		assert.Equal(t, "Maera Thistledown", record.Name)
		assert.Equal(t, 17, record.Dexterity)
		assert.Len(t, record.Actions, 2)
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		_, err := ParseRecord([]byte("not json"))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("names the missing field", func(t *testing.T) {
		data := validRecordJSON(t, func(m map[string]interface{}) {
			delete(m, "charisma")
		})
		_, err := ParseRecord(data)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "charisma", verr.Field)
	})

	t.Run("rejects out-of-range ability scores", func(t *testing.T) {
		for _, score := range []int{2, 21, 0} {
			data := validRecordJSON(t, func(m map[string]interface{}) {
				m["wisdom"] = score
			})
			_, err := ParseRecord(data)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "wisdom", verr.Field)
		}
	})

	t.Run("accepts boundary ability scores", func(t *testing.T) {
		data := validRecordJSON(t, func(m map[string]interface{}) {
			m["strength"] = 3
			m["charisma"] = 20
		})
		_, err := ParseRecord(data)
		require.NoError(t, err)
	})

	t.Run("rejects an empty action list", func(t *testing.T) {
		data := validRecordJSON(t, func(m map[string]interface{}) {
			m["actions"] = []map[string]string{}
		})
		_, err := ParseRecord(data)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "actions", verr.Field)
	})

	t.Run("rejects an action without a description", func(t *testing.T) {
		data := validRecordJSON(t, func(m map[string]interface{}) {
			m["actions"] = []map[string]string{{"name": "Bite"}}
		})
		_, err := ParseRecord(data)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "actions[0]", verr.Field)
	})
}

func TestRoll20Command(t *testing.T) {
	t.Run("renders the create command with the JSON payload", func(t *testing.T) {
		record, err := ParseRecord(validRecordJSON(t, nil))
		require.NoError(t, err)

		command, err := record.Roll20Command()
		require.NoError(t, err)
		assert.True(t, len(command) > len("!create-npc "))
		assert.Equal(t, "!create-npc ", command[:len("!create-npc ")])

		// The payload after the prefix must be the record itself.
		var decoded Record
		require.NoError(t, json.Unmarshal([]byte(command[len("!create-npc "):]), &decoded))
		assert.Equal(t, *record, decoded)
	})

	t.Run("omits the image URL when absent", func(t *testing.T) {
		record, err := ParseRecord(validRecordJSON(t, nil))
		require.NoError(t, err)

		command, err := record.Roll20Command()
		require.NoError(t, err)
		assert.NotContains(t, command, "image_url")

		record.ImageURL = "https://img.test/maera.png"
		command, err = record.Roll20Command()
		require.NoError(t, err)
		assert.Contains(t, command, `"image_url":"https://img.test/maera.png"`)
	})
}
