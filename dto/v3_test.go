package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coop-results-system/models"
)

const weaponURL = "https://api.lp1.av5ja.srv.nintendo.net/resources/prod/v2/weapon_illust/0d4a56b9bb0a94e5875ff9a40c1e841daaf032ba86bafba44ab0d20407b8ac12_0.png"

var testWeapons = WeaponTable{
	"0d4a56b9bb0a94e5875ff9a40c1e841daaf032ba86bafba44ab0d20407b8ac12": 310,
}

const v3Payload = `{
  "data": {
    "coopHistoryDetail": {
      "id": "Q29vcEhpc3RvcnlEZXRhaWwtdS1hN2dyejY1cnhrdmhmc2J3bXhtbToyMDIzMDkwNlQxNTEzNThfNTRhNDc1MDctYzVhYy00ZDc2LTlhNzgtNzNlYzI0MWNkZmVm",
      "afterGrade": {"id": "Q29vcEdyYWRlLTg="},
      "rule": "REGULAR",
      "resultWave": 0,
      "playedTime": "2023-09-06T15:13:58Z",
      "coopStage": {"id": "Q29vcFN0YWdlLTEwNg=="},
      "dangerRate": 1.88,
      "scenarioCode": null,
      "smellMeter": 2,
      "afterGradePoint": 120,
      "scale": {"gold": 1, "silver": 2, "bronze": 3},
      "jobPoint": 330,
      "jobScore": 115,
      "jobRate": 2.2,
      "jobBonus": 100,
      "weapons": [
        {"image": {"url": "` + weaponURL + `"}},
        {"image": {"url": "` + weaponURL + `"}},
        {"image": {"url": "` + weaponURL + `"}},
        {"image": {"url": "` + weaponURL + `"}}
      ],
      "bossResult": {
        "hasDefeatBoss": true,
        "boss": {"id": "S2luZy0yMw=="}
      },
      "enemyResults": [
        {"defeatCount": 2, "teamDefeatCount": 3, "popCount": 5, "enemy": {"id": "Q29vcEVuZW15LTQ=", "image": {"url": "https://example.com/4.png"}}},
        {"defeatCount": 0, "teamDefeatCount": 1, "popCount": 1, "enemy": {"id": "Q29vcEVuZW15LTIw", "image": {"url": "https://example.com/20.png"}}}
      ],
      "waveResults": [
        {"waveNumber": 1, "waterLevel": 0, "eventWave": null, "deliverNorm": 25, "goldenPopCount": 50, "teamDeliverCount": 25, "specialWeapons": []},
        {"waveNumber": 2, "waterLevel": 1, "eventWave": {"id": "Q29vcEV2ZW50V2F2ZS0y"}, "deliverNorm": 27, "goldenPopCount": 55, "teamDeliverCount": 30, "specialWeapons": [{"id": "U3BlY2lhbFdlYXBvbi0yMDAwOQ=="}]},
        {"waveNumber": 3, "waterLevel": 2, "eventWave": null, "deliverNorm": 29, "goldenPopCount": 60, "teamDeliverCount": 35, "specialWeapons": [{"id": "U3BlY2lhbFdlYXBvbi0yMDAwOQ=="}, {"id": "U3BlY2lhbFdlYXBvbi0yMDAwOQ=="}]},
        {"waveNumber": 4, "waterLevel": 1, "eventWave": null, "deliverNorm": null, "goldenPopCount": 20, "teamDeliverCount": null, "specialWeapons": []}
      ],
      "myResult": {
        "player": {
          "byname": "Splendid Worker",
          "name": "fixture",
          "nameId": "1234",
          "species": "INKLING",
          "id": "Q29vcEhpc3RvcnlEZXRhaWwtdS1hN2dyejY1cnhrdmhmc2J3bXhtbToyMDIzMDkwNlQxNTEzNThfNTRhNDc1MDctYzVhYy00ZDc2LTlhNzgtNzNlYzI0MWNkZmVmOnUtYTdncno2NXJ4a3ZoZnNid214bW0=",
          "uniform": {"id": "Q29vcFVuaWZvcm0tMw=="},
          "nameplate": {
            "badges": [{"id": "QmFkZ2UtNTIwMDAwMQ=="}, null, {"id": "bm90LWEtdG9rZW4="}],
            "background": {"id": "TmFtZXBsYXRlQmFja2dyb3VuZC05NTE=", "textColor": {"r": 1, "g": 0.5, "b": 0.25, "a": 1}}
          }
        },
        "weapons": [{"image": {"url": "` + weaponURL + `"}}],
        "specialWeapon": {"weaponId": 20009},
        "defeatEnemyCount": 2,
        "deliverCount": 900,
        "goldenAssistCount": 2,
        "goldenDeliverCount": 40,
        "rescueCount": 1,
        "rescuedCount": 0
      },
      "memberResults": [
        {
          "player": {
            "byname": "Fishy Worker",
            "name": "teammate",
            "nameId": "5678",
            "species": "OCTOLING",
            "id": "Q29vcEhpc3RvcnlEZXRhaWwtdS1hN2dyejY1cnhrdmhmc2J3bXhtbToyMDIzMDkwNlQxNTEzNThfNTRhNDc1MDctYzVhYy00ZDc2LTlhNzgtNzNlYzI0MWNkZmVmOnUtcTVybXh2cm5mMmgybXhtbWZzYnc=",
            "uniform": {"id": "bm90LWEtdG9rZW4="},
            "nameplate": {
              "badges": [null, null, null],
              "background": {"id": "bm90LWEtdG9rZW4=", "textColor": {"r": 0, "g": 0, "b": 0, "a": 1}}
            }
          },
          "weapons": [{"image": {"url": "https://example.com/unknown.png"}}],
          "specialWeapon": null,
          "defeatEnemyCount": 1,
          "deliverCount": 1100,
          "goldenAssistCount": 1,
          "goldenDeliverCount": 50,
          "rescueCount": 0,
          "rescuedCount": 1
        }
      ]
    }
  }
}`

func TestV3Normalize(t *testing.T) {
	var req V3Request
	require.NoError(t, json.Unmarshal([]byte(v3Payload), &req))

	n, err := req.Normalize(testWeapons)
	require.NoError(t, err)

	result := n.Result
	assert.Equal(t, "54A47507-C5AC-4D76-9A78-73EC241CDFEF", result.UUID)
	assert.Equal(t, time.Date(2023, 9, 6, 15, 13, 58, 0, time.UTC), result.PlayTime)
	assert.Equal(t, "b47b7fcb881ab5113c349f12ac0601be", result.ResultID)
	assert.True(t, result.IsClear)
	assert.Nil(t, result.FailureWave)

	t.Run("schedule candidate", func(t *testing.T) {
		assert.Equal(t, models.ModeRegular, n.Schedule.Mode)
		assert.Equal(t, models.RuleRegular, n.Schedule.Rule)
		assert.Equal(t, 106, n.Schedule.StageID)
		assert.Equal(t, []int{310, 310, 310, 310}, n.Schedule.WeaponList)
		assert.Nil(t, n.Schedule.StartTime)
	})

	t.Run("aggregates are recomputed", func(t *testing.T) {
		assert.Equal(t, 2000, result.IkuraNum)
		assert.Equal(t, 90, result.GoldenIkuraNum)
		assert.Equal(t, 3, result.GoldenIkuraAssistNum)
		assert.InDelta(t, 1.88, result.DangerRate, 1e-9)
	})

	t.Run("king salmonid", func(t *testing.T) {
		require.NotNil(t, result.BossID)
		assert.Equal(t, 23, *result.BossID)
		require.NotNil(t, result.IsBossDefeated)
		assert.True(t, *result.IsBossDefeated)
		assert.Equal(t, intPtr(3), result.Bronze)
		assert.Equal(t, intPtr(2), result.Silver)
		assert.Equal(t, intPtr(1), result.Gold)
	})

	t.Run("enemy tallies align to the canonical order", func(t *testing.T) {
		require.Len(t, result.BossCounts, len(EnemyIDs))
		assert.Equal(t, 5, result.BossCounts[0])   // id 4
		assert.Equal(t, 1, result.BossCounts[13])  // id 20
		assert.Equal(t, 0, result.BossCounts[5])
		assert.Equal(t, 3, result.BossKillCounts[0])
		assert.Equal(t, 1, result.BossKillCounts[13])
	})

	t.Run("waves", func(t *testing.T) {
		require.Len(t, result.Waves, 4)
		assert.Equal(t, EventWaterLevels, result.Waves[0].EventType)
		assert.Equal(t, 2, result.Waves[1].EventType)
		assert.Equal(t, intPtr(25), result.Waves[0].QuotaNum)
		assert.Nil(t, result.Waves[3].QuotaNum)
		assert.Nil(t, result.Waves[3].GoldenIkuraNum)
		for _, w := range result.Waves {
			assert.True(t, w.IsClear)
		}
		assert.False(t, result.NightLess)
	})

	t.Run("players", func(t *testing.T) {
		require.Len(t, result.Players, 2)
		self, member := result.Players[0], result.Players[1]

		assert.True(t, self.IsMyself)
		assert.Equal(t, "a7grz65rxkvhfsbwmxmm", self.NplnUserID)
		assert.Equal(t, []int{310}, self.WeaponList)
		assert.Equal(t, 951, self.Nameplate)
		assert.Equal(t, 3, self.Uniform)
		assert.Equal(t, []float64{1, 0.5, 0.25, 1}, self.TextColor)

		// badge decode misses store null in this generation
		require.Len(t, self.Badges, 3)
		assert.Equal(t, intPtr(5200001), self.Badges[0])
		assert.Nil(t, self.Badges[1])
		assert.Nil(t, self.Badges[2])

		// per-wave usage of the player's own special
		assert.Equal(t, intPtr(20009), self.SpecialID)
		assert.Equal(t, []int{0, 1, 2, 0}, self.SpecialCounts)

		// only the submitter knows individual kill counts
		require.Len(t, self.BossKillCounts, len(EnemyIDs))
		assert.Equal(t, intPtr(2), self.BossKillCounts[0])
		assert.Equal(t, intPtr(0), self.BossKillCounts[1])
		for _, c := range member.BossKillCounts {
			assert.Nil(t, c)
		}

		assert.False(t, member.IsMyself)
		assert.Equal(t, "q5rmxvrnf2h2mxmmfsbw", member.NplnUserID)
		assert.Equal(t, []int{models.WeaponDummy}, member.WeaponList)
		assert.Equal(t, FallbackUniform, member.Uniform)
		assert.Equal(t, FallbackBackground, member.Nameplate)
		assert.Nil(t, member.SpecialID)
		assert.Equal(t, []int{0, 0, 0, 0}, member.SpecialCounts)
	})

	t.Run("submitter-only fields", func(t *testing.T) {
		self, member := result.Players[0], result.Players[1]
		assert.Equal(t, intPtr(8), self.GradeID)
		assert.Equal(t, intPtr(120), self.GradePoint)
		assert.Equal(t, intPtr(115), self.JobScore)
		assert.Equal(t, intPtr(100), self.JobBonus)
		assert.Equal(t, intPtr(330), self.KumaPoint)
		assert.Equal(t, intPtr(2), self.SmellMeter)
		require.NotNil(t, self.JobRate)
		assert.InDelta(t, 2.2, *self.JobRate, 1e-9)

		assert.Nil(t, member.GradeID)
		assert.Nil(t, member.GradePoint)
		assert.Nil(t, member.KumaPoint)
	})

	t.Run("members list self first", func(t *testing.T) {
		assert.Equal(t, []string{"a7grz65rxkvhfsbwmxmm", "q5rmxvrnf2h2mxmmfsbw"}, result.Members)
	})
}

func TestV3NormalizeFailureWave(t *testing.T) {
	var req V3Request
	require.NoError(t, json.Unmarshal([]byte(v3Payload), &req))
	req.Data.CoopHistoryDetail.ResultWave = 3
	req.Data.CoopHistoryDetail.BossResult = nil

	n, err := req.Normalize(testWeapons)
	require.NoError(t, err)

	assert.False(t, n.Result.IsClear)
	assert.Equal(t, intPtr(3), n.Result.FailureWave)
	assert.True(t, n.Result.Waves[0].IsClear)
	assert.True(t, n.Result.Waves[1].IsClear)
	assert.False(t, n.Result.Waves[2].IsClear)
}

func TestV3NormalizeMalformed(t *testing.T) {
	t.Run("bad result id", func(t *testing.T) {
		var req V3Request
		require.NoError(t, json.Unmarshal([]byte(v3Payload), &req))
		req.Data.CoopHistoryDetail.ID = "garbage"

		_, err := req.Normalize(testWeapons)
		assert.ErrorIs(t, err, ErrMalformedIdentifier)
	})

	t.Run("undecodable stage is fatal", func(t *testing.T) {
		var req V3Request
		require.NoError(t, json.Unmarshal([]byte(v3Payload), &req))
		req.Data.CoopHistoryDetail.CoopStage.ID = "bm90LWEtdG9rZW4="

		_, err := req.Normalize(testWeapons)
		assert.ErrorIs(t, err, ErrMalformedIdentifier)
	})

	t.Run("undecodable enemy is fatal", func(t *testing.T) {
		var req V3Request
		require.NoError(t, json.Unmarshal([]byte(v3Payload), &req))
		req.Data.CoopHistoryDetail.EnemyResults[0].Enemy.ID = "bm90LWEtdG9rZW4="

		_, err := req.Normalize(testWeapons)
		assert.ErrorIs(t, err, ErrMalformedIdentifier)
	})
}
