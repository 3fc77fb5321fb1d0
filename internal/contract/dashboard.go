package contract

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

func anyInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func anyFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func cashLineContract(cashLine map[string]any) map[string]any {
	raw := strings.ToLower(strings.TrimSpace(asString(cashLine["cutoff_type"])))
	cutoffType := "unknown"
	switch raw {
	case "positions_paid", "rank":
		cutoffType = "rank"
	case "points":
		cutoffType = "points"
	}
	return map[string]any{
		"cutoff_type":   cutoffType,
		"rank_cutoff":   cashLine["rank"],
		"points_cutoff": cashLine["points"],
	}
}

func ownershipWatchlistContract(ownership map[string]any, updatedAt string) map[string]any {
	entries := []any{}
	if rows, ok := asList(ownership["top_remaining_players"]); ok {
		for _, raw := range rows {
			row, ok := asMap(raw)
			if !ok {
				continue
			}
			entryKey := row["entry_key"]
			displayName := row["display_name"]
			if isBlank(displayName) {
				displayName = row["player_name"]
			}
			if isBlank(displayName) && !isBlank(entryKey) {
				displayName = asString(entryKey)
			}
			entries = append(entries, map[string]any{
				"display_name":            displayName,
				"ownership_remaining_pct": anyFloat(toFloat(row["ownership_remaining_pct"])),
				"entry_key":               entryKey,
				"current_rank":            anyInt(rankNumeric(row["current_rank"])),
				"current_points":          anyFloat(toFloat(row["current_points"])),
				"pmr":                     anyFloat(toFloat(row["pmr"])),
			})
		}
	}
	topNDefault := 10
	if n := toInt(ownership["top_n_default"]); n != nil && *n > 0 {
		topNDefault = *n
	}
	return map[string]any{
		"updated_at":                    updatedAt,
		"ownership_remaining_total_pct": anyFloat(toFloat(ownership["ownership_remaining_total_pct"])),
		"top_n_default":                 topNDefault,
		"entries":                       entries,
	}
}

func normalizeStandingsRows(rows []any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, raw := range rows {
		row, ok := asMap(raw)
		if !ok {
			continue
		}
		entryKey := row["entry_key"]
		displayName := row["display_name"]
		if isBlank(displayName) {
			displayName = row["username"]
		}
		if isBlank(displayName) && !isBlank(entryKey) {
			displayName = asString(entryKey)
		}
		payoutCents := toInt(row["payout_cents"])
		isCashing := false
		if b, ok := row["is_cashing"].(bool); ok {
			isCashing = b
		} else {
			isCashing = payoutCents != nil && *payoutCents > 0
		}
		ownership := row["ownership_remaining_total_pct"]
		if ownership == nil {
			ownership = row["ownership_remaining_pct"]
		}
		out = append(out, map[string]any{
			"entry_key":               entryKey,
			"display_name":            displayName,
			"rank":                    anyInt(rankNumeric(row["rank"])),
			"points":                  anyFloat(toFloat(row["points"])),
			"pmr":                     anyFloat(toFloat(row["pmr"])),
			"ownership_remaining_pct": anyFloat(toFloat(ownership)),
			"payout_cents":            anyInt(payoutCents),
			"is_cashing":              isCashing,
			"is_vip":                  row["is_vip"] == true,
		})
	}
	return out
}

func uniqueStandingsByDisplayName(rows []map[string]any) map[string]map[string]any {
	counts := map[string]int{}
	for _, row := range rows {
		if isBlank(row["display_name"]) {
			continue
		}
		counts[asString(row["display_name"])]++
	}
	unique := map[string]map[string]any{}
	for _, row := range rows {
		if isBlank(row["display_name"]) {
			continue
		}
		key := asString(row["display_name"])
		if counts[key] == 1 {
			unique[key] = row
		}
	}
	return unique
}

// buildPlayerNameLookup maps lowercase names to their display casing.
// Names whose lowercase form is ambiguous are dropped entirely.
func buildPlayerNameLookup(players []any) map[string]string {
	lookup := map[string]string{}
	collisions := map[string]bool{}
	for _, raw := range players {
		player, ok := asMap(raw)
		if !ok {
			continue
		}
		name := strings.TrimSpace(asString(player["name"]))
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if existing, ok := lookup[key]; ok && existing != name {
			collisions[key] = true
		} else {
			lookup[key] = name
		}
	}
	for key := range collisions {
		delete(lookup, key)
	}
	return lookup
}

func canonicalPlayerName(rawName any, lookup map[string]string) string {
	name := strings.TrimSpace(asString(rawName))
	if name == "" {
		return ""
	}
	return lookup[strings.ToLower(name)]
}

func canonicalOrRawPlayerName(rawName any, lookup map[string]string) string {
	name := strings.TrimSpace(asString(rawName))
	if name == "" {
		return ""
	}
	if canonical := canonicalPlayerName(name, lookup); canonical != "" {
		return canonical
	}
	return name
}

func clusterComposition(cluster map[string]any, playerLookup map[string]string) []any {
	signature := strings.TrimSpace(asString(cluster["lineup_signature"]))
	if signature == "" {
		return []any{}
	}
	composition := []any{}
	index := 0
	for _, part := range strings.Split(signature, "|") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		index++
		canonical := canonicalPlayerName(name, playerLookup)
		if canonical == "" {
			continue
		}
		composition = append(composition, map[string]any{
			"slot":        fmt.Sprintf("SLOT_%d", index),
			"player_name": canonical,
		})
	}
	return composition
}

func trainClustersContract(
	clusters []any,
	updatedAt string,
	playerLookup map[string]string,
	standingsByEntryKey map[string]map[string]any,
) map[string]any {
	mapped := []any{}
	maxShared := 0
	for _, raw := range clusters {
		row, ok := asMap(raw)
		if !ok {
			continue
		}
		composition := clusterComposition(row, playerLookup)
		if len(composition) > maxShared {
			maxShared = len(composition)
		}

		entryKeys := []string{}
		if rawKeys, ok := asList(row["entry_keys"]); ok {
			for _, rawKey := range rawKeys {
				if key := asString(rawKey); key != "" {
					entryKeys = append(entryKeys, key)
				}
			}
		}
		sampleEntries := []any{}
		pmrSum, pmrCount := 0.0, 0
		ownSum, ownCount := 0.0, 0
		for _, entryKey := range entryKeys {
			standing := standingsByEntryKey[entryKey]
			displayName := any(nil)
			if standing != nil {
				displayName = standing["display_name"]
			}
			if isBlank(displayName) && entryKey != "" {
				displayName = entryKey
			}
			var rank, points, pmr any
			if standing != nil {
				rank = anyInt(rankNumeric(standing["rank"]))
				points = anyFloat(toFloat(standing["points"]))
				pmr = anyFloat(toFloat(standing["pmr"]))
				if isNumber(standing["ownership_remaining_pct"]) {
					ownSum += floatValue(standing["ownership_remaining_pct"])
					ownCount++
				}
			}
			if isNumber(pmr) {
				pmrSum += floatValue(pmr)
				pmrCount++
			}
			sampleEntries = append(sampleEntries, map[string]any{
				"entry_key":    entryKey,
				"display_name": displayName,
				"rank":         rank,
				"points":       points,
				"pmr":          pmr,
			})
		}

		entryCount := len(entryKeys)
		if n := toInt(row["user_count"]); n != nil && *n != 0 {
			entryCount = *n
		}
		avgPMR := anyFloat(toFloat(row["pmr"]))
		if pmrCount > 0 {
			avgPMR = pmrSum / float64(pmrCount)
		}
		var avgOwnership any
		if ownCount > 0 {
			avgOwnership = ownSum / float64(ownCount)
		}
		clusterKey := row["cluster_id"]
		if isBlank(clusterKey) {
			clusterKey = row["lineup_signature"]
		}
		mapped = append(mapped, map[string]any{
			"cluster_key":                 clusterKey,
			"entry_count":                 entryCount,
			"best_rank":                   anyInt(rankNumeric(row["rank"])),
			"best_points":                 anyFloat(toFloat(row["points"])),
			"avg_pmr":                     avgPMR,
			"avg_ownership_remaining_pct": avgOwnership,
			"composition":                 composition,
			"sample_entries":              sampleEntries,
		})
	}
	return map[string]any{
		"updated_at": updatedAt,
		"cluster_rule": map[string]any{
			"type":       "shared_slots",
			"min_shared": maxShared,
		},
		"clusters": mapped,
	}
}

func vipSlotsFromLineup(lineup any, playerLookup map[string]string) []any {
	items, ok := asList(lineup)
	if !ok {
		return []any{}
	}
	slots := []any{}
	for index, raw := range items {
		var playerName, slot any
		var multiplier any
		if item, ok := asMap(raw); ok {
			playerName = item["player_name"]
			if isBlank(playerName) {
				playerName = item["name"]
			}
			slot = firstPresent(item, "slot", "position", "pos")
			multiplier = item["multiplier"]
		} else {
			playerName = asString(raw)
		}
		if isBlank(slot) {
			slot = fmt.Sprintf("SLOT_%d", index+1)
		}
		canonical := canonicalPlayerName(playerName, playerLookup)
		if canonical == "" {
			continue
		}
		slotRow := map[string]any{"slot": slot, "player_name": canonical}
		if multiplier != nil {
			slotRow["multiplier"] = multiplier
		}
		slots = append(slots, slotRow)
	}
	return slots
}

func firstPresent(item map[string]any, keys ...string) any {
	for _, key := range keys {
		if !isBlank(item[key]) {
			return item[key]
		}
	}
	return nil
}

func buildPlayerStatusLookup(players []any) map[string]string {
	lookup := map[string]string{}
	for _, raw := range players {
		player, ok := asMap(raw)
		if !ok {
			continue
		}
		name := strings.TrimSpace(asString(player["name"]))
		status := strings.TrimSpace(asString(player["game_status"]))
		if name == "" || status == "" {
			continue
		}
		lookup[strings.ToLower(name)] = status
	}
	return lookup
}

func vipPlayersLiveFromLineup(
	lineup any,
	playerLookup map[string]string,
	playerStatusLookup map[string]string,
) []any {
	items, ok := asList(lineup)
	if !ok {
		return []any{}
	}
	rows := []any{}
	for index, raw := range items {
		var rawName, slot, gameStatus, timeDisplayRaw, statsRaw any
		var ownershipPct, points, value, rtProjection, timeMinutes *float64
		var salary *int
		if item, ok := asMap(raw); ok {
			rawName = item["player_name"]
			if isBlank(rawName) {
				rawName = item["name"]
			}
			slot = firstPresent(item, "slot", "position", "pos")
			ownershipSource := item["ownership_pct"]
			if ownershipSource == nil {
				ownershipSource = item["ownership"]
			}
			ownershipPct = toPercent(ownershipSource)
			salary = toIntFlexible(item["salary"])
			pointsSource := item["points"]
			if pointsSource == nil {
				pointsSource = item["pts"]
			}
			points = toFloat(pointsSource)
			value = toFloat(item["value"])
			rtSource := item["rt_projection"]
			if rtSource == nil {
				rtSource = item["rtProj"]
			}
			rtProjection = toFloat(rtSource)
			timeDisplayRaw = item["time_remaining_display"]
			if timeDisplayRaw == nil {
				timeDisplayRaw = item["timeStatus"]
			}
			minutesSource := item["time_remaining_minutes"]
			if minutesSource == nil {
				minutesSource = timeDisplayRaw
			}
			timeMinutes = toFloat(minutesSource)
			statsRaw = item["stats_text"]
			if statsRaw == nil {
				statsRaw = item["stats"]
			}
			gameStatus = item["game_status"]
		} else {
			rawName = raw
		}
		if isBlank(slot) {
			slot = fmt.Sprintf("SLOT_%d", index+1)
		}

		playerName := canonicalOrRawPlayerName(rawName, playerLookup)
		if playerName == "" {
			continue
		}
		statusText := strings.TrimSpace(asString(gameStatus))
		if statusText == "" {
			statusText = playerStatusLookup[strings.ToLower(playerName)]
		}
		timeDisplay := strings.TrimSpace(asString(timeDisplayRaw))
		statsText := strings.TrimSpace(asString(statsRaw))

		liveRow := map[string]any{
			"slot":        asString(slot),
			"player_name": playerName,
		}
		if statusText != "" {
			liveRow["game_status"] = statusText
		}
		if ownershipPct != nil {
			liveRow["ownership_pct"] = *ownershipPct
		}
		if salary != nil {
			liveRow["salary"] = *salary
		}
		if points != nil {
			liveRow["points"] = *points
		}
		if value != nil {
			liveRow["value"] = *value
		}
		if rtProjection != nil {
			liveRow["rt_projection"] = *rtProjection
		}
		if timeDisplay != "" {
			liveRow["time_remaining_display"] = timeDisplay
		}
		if timeMinutes != nil {
			liveRow["time_remaining_minutes"] = *timeMinutes
		}
		if statsText != "" {
			liveRow["stats_text"] = statsText
		}
		rows = append(rows, liveRow)
	}
	return rows
}

func vipLineupsContract(
	vipLineups []any,
	playerLookup map[string]string,
	playerStatusLookup map[string]string,
	updatedAt string,
	standingsByEntryKey map[string]map[string]any,
	standingsByUsername map[string]map[string]any,
	cashLine map[string]any,
) []any {
	normalized := []any{}
	for _, raw := range vipLineups {
		row, ok := asMap(raw)
		if !ok {
			continue
		}
		displayName := firstPresent(row, "display_name", "username", "user")
		entryKey := row["entry_key"]
		standing := standingsByEntryKey[asString(entryKey)]
		if standing == nil && !isBlank(displayName) {
			standing = standingsByUsername[asString(displayName)]
		}
		if isBlank(entryKey) && standing != nil {
			entryKey = standing["entry_key"]
		}
		if isBlank(displayName) && !isBlank(entryKey) {
			displayName = asString(entryKey)
		}
		currentPoints := row["pts"]
		if currentPoints == nil && standing != nil {
			currentPoints = standing["points"]
		}
		currentRank := row["rank"]
		if currentRank == nil && standing != nil {
			currentRank = standing["rank"]
		}
		currentPointsNum := toFloat(currentPoints)
		currentRankNum := rankNumeric(currentRank)
		var cashDelta any
		if currentPointsNum != nil && isNumber(cashLine["points_cutoff"]) {
			cashDelta = *currentPointsNum - floatValue(cashLine["points_cutoff"])
		}
		payoutSource := row["payout_cents"]
		if payoutSource == nil && standing != nil {
			payoutSource = standing["payout_cents"]
		}
		payoutCents := toInt(payoutSource)
		var isCashing bool
		if payoutCents != nil {
			isCashing = *payoutCents > 0
		} else if b, ok := row["is_cashing"].(bool); ok {
			isCashing = b
		} else if standing != nil {
			isCashing = standing["is_cashing"] == true
		}

		pmr := row["pmr"]
		if pmr == nil && standing != nil {
			pmr = standing["pmr"]
		}
		var ownershipRemaining any
		if standing != nil {
			ownershipRemaining = anyFloat(toFloat(standing["ownership_remaining_pct"]))
		}
		lineupSource := row["lineup"]
		if lineupSource == nil {
			lineupSource = row["players"]
		}
		playersSource := row["players"]
		if playersSource == nil {
			playersSource = row["lineup"]
		}
		normalized = append(normalized, map[string]any{
			"display_name":  displayName,
			"entry_key":     entryKey,
			"vip_entry_key": row["vip_entry_key"],
			"live": map[string]any{
				"updated_at":              updatedAt,
				"current_points":          anyFloat(currentPointsNum),
				"current_rank":            anyInt(currentRankNum),
				"cash_line_delta_points":  cashDelta,
				"is_cashing":              isCashing,
				"payout_cents":            anyInt(payoutCents),
				"ownership_remaining_pct": ownershipRemaining,
				"pmr":                     anyFloat(toFloat(pmr)),
			},
			"slots":        vipSlotsFromLineup(lineupSource, playerLookup),
			"players_live": vipPlayersLiveFromLineup(playersSource, playerLookup, playerStatusLookup),
		})
	}
	return normalized
}

func distanceToCashMetrics(vipLineups []any, cashLine map[string]any) map[string]any {
	cutoffPoints := cashLine["points_cutoff"]
	rankCutoff := cashLine["rank_cutoff"]
	perVIP := []any{}
	for _, raw := range vipLineups {
		lineup, ok := asMap(raw)
		if !ok {
			continue
		}
		live, _ := asMap(lineup["live"])
		var pointsDelta, rankDelta any
		if live != nil {
			if isNumber(live["current_points"]) && isNumber(cutoffPoints) {
				pointsDelta = floatValue(live["current_points"]) - floatValue(cutoffPoints)
			}
			if isInt(live["current_rank"]) && isInt(rankCutoff) {
				rankDelta = int(floatValue(rankCutoff)) - int(floatValue(live["current_rank"]))
			}
		}
		if pointsDelta == nil && rankDelta == nil {
			continue
		}
		row := map[string]any{
			"vip_entry_key": lineup["vip_entry_key"],
			"entry_key":     lineup["entry_key"],
			"display_name":  lineup["display_name"],
		}
		if pointsDelta != nil {
			row["points_delta"] = pointsDelta
		}
		if rankDelta != nil {
			row["rank_delta"] = rankDelta
		}
		perVIP = append(perVIP, row)
	}
	if len(perVIP) == 0 {
		return nil
	}
	metrics := map[string]any{"per_vip": perVIP}
	if isNumber(cutoffPoints) {
		metrics["cutoff_points"] = cutoffPoints
	}
	return metrics
}

func ownershipSummaryMetrics(vipLineups []any) map[string]any {
	perVIP := []any{}
	for _, raw := range vipLineups {
		lineup, ok := asMap(raw)
		if !ok {
			continue
		}
		vipEntryKey := lineup["vip_entry_key"]
		entryKey := lineup["entry_key"]
		if isBlank(vipEntryKey) && isBlank(entryKey) {
			continue
		}
		playersLive, _ := asList(lineup["players_live"])
		totalOwnership := 0.0
		ownershipInPlay := 0.0
		hasTotal := false
		hasInPlay := false
		isPartial := false
		for _, rawPlayer := range playersLive {
			player, ok := asMap(rawPlayer)
			if !ok {
				continue
			}
			if !isNumber(player["ownership_pct"]) {
				isPartial = true
				continue
			}
			ownership := floatValue(player["ownership_pct"])
			totalOwnership += ownership
			hasTotal = true
			switch statusBucket(player["game_status"]) {
			case "active":
				ownershipInPlay += ownership
				hasInPlay = true
			case "terminal":
				hasInPlay = true
			default:
				isPartial = true
			}
		}
		if !hasTotal {
			isPartial = true
		}
		row := map[string]any{
			"vip_entry_key": vipEntryKey,
			"entry_key":     entryKey,
			"display_name":  lineup["display_name"],
			"is_partial":    isPartial,
		}
		if hasTotal {
			row["total_ownership_pct"] = RoundHalfUp(totalOwnership, 4)
		}
		if hasInPlay {
			row["ownership_in_play_pct"] = RoundHalfUp(ownershipInPlay, 4)
		}
		perVIP = append(perVIP, row)
	}
	if len(perVIP) == 0 {
		return nil
	}
	return map[string]any{
		"source":  "vip_lineup_players",
		"scope":   "vip_lineup",
		"per_vip": perVIP,
	}
}

func nonCashingMetrics(ownership map[string]any) map[string]any {
	if ownership == nil {
		return nil
	}
	usersNotCashing := rankNumeric(ownership["non_cashing_user_count"])
	avgPMRRemaining := toFloat(ownership["non_cashing_avg_pmr"])
	topRemaining := []any{}
	if rows, ok := asList(ownership["top_remaining_players"]); ok {
		for _, raw := range rows {
			row, ok := asMap(raw)
			if !ok {
				continue
			}
			playerName := firstPresent(row, "player_name", "display_name", "entry_key")
			if isBlank(playerName) {
				continue
			}
			playerRow := map[string]any{"player_name": playerName}
			if pct := toFloat(row["ownership_remaining_pct"]); pct != nil {
				playerRow["ownership_remaining_pct"] = *pct
			}
			topRemaining = append(topRemaining, playerRow)
		}
	}
	hasNonDefault := (usersNotCashing != nil && *usersNotCashing > 0) ||
		(avgPMRRemaining != nil && *avgPMRRemaining > 0) ||
		len(topRemaining) > 0
	if !hasNonDefault {
		return nil
	}
	metrics := map[string]any{}
	if usersNotCashing != nil {
		metrics["users_not_cashing"] = *usersNotCashing
	}
	if avgPMRRemaining != nil {
		metrics["avg_pmr_remaining"] = *avgPMRRemaining
	}
	if len(topRemaining) > 0 {
		metrics["top_remaining_players"] = topRemaining
	}
	return metrics
}

func threatMetrics(watchlist map[string]any, vipLineups []any) map[string]any {
	if watchlist == nil {
		return nil
	}
	entries, _ := asList(watchlist["entries"])
	var fieldRemainingPct any
	fieldRemainingSource := "watchlist_entries_sum"
	fieldRemainingIsPartial := true
	if isNumber(watchlist["ownership_remaining_total_pct"]) {
		fieldRemainingPct = floatValue(watchlist["ownership_remaining_total_pct"])
		fieldRemainingSource = "ownership_watchlist_total"
		fieldRemainingIsPartial = false
	} else {
		sum := 0.0
		found := false
		for _, raw := range entries {
			entry, ok := asMap(raw)
			if !ok {
				continue
			}
			if isNumber(entry["ownership_remaining_pct"]) {
				sum += floatValue(entry["ownership_remaining_pct"])
				found = true
			}
		}
		if found {
			fieldRemainingPct = sum
		}
	}

	vipLineupPlayers := make([]map[string]bool, 0, len(vipLineups))
	for _, raw := range vipLineups {
		lineup, ok := asMap(raw)
		if !ok {
			continue
		}
		names := map[string]bool{}
		if slots, ok := asList(lineup["slots"]); ok {
			for _, rawSlot := range slots {
				slot, ok := asMap(rawSlot)
				if !ok || isBlank(slot["player_name"]) {
					continue
				}
				names[strings.ToLower(strings.TrimSpace(asString(slot["player_name"])))] = true
			}
		}
		vipLineupPlayers = append(vipLineupPlayers, names)
	}

	sortedEntries := make([]map[string]any, 0, len(entries))
	for _, raw := range entries {
		if entry, ok := asMap(raw); ok {
			sortedEntries = append(sortedEntries, entry)
		}
	}
	sort.SliceStable(sortedEntries, func(i, j int) bool {
		return ownershipOrZero(sortedEntries[i]) > ownershipOrZero(sortedEntries[j])
	})
	topSwing := []any{}
	for _, entry := range sortedEntries {
		name := entry["display_name"]
		if isBlank(name) {
			name = entry["entry_key"]
		}
		if isBlank(name) {
			continue
		}
		nameKey := strings.ToLower(strings.TrimSpace(asString(name)))
		vipCount := 0
		for _, names := range vipLineupPlayers {
			if names[nameKey] {
				vipCount++
			}
		}
		topSwing = append(topSwing, map[string]any{
			"player_name":             name,
			"remaining_ownership_pct": entry["ownership_remaining_pct"],
			"vip_count":               vipCount,
		})
	}

	vipVsField := []any{}
	for _, raw := range vipLineups {
		lineup, ok := asMap(raw)
		if !ok {
			continue
		}
		live, _ := asMap(lineup["live"])
		var vipRemaining any
		if live != nil {
			vipRemaining = live["ownership_remaining_pct"]
		}
		var uniquenessDelta any
		if isNumber(fieldRemainingPct) && isNumber(vipRemaining) {
			uniquenessDelta = floatValue(fieldRemainingPct) - floatValue(vipRemaining)
		}
		vipVsField = append(vipVsField, map[string]any{
			"vip_entry_key":        lineup["vip_entry_key"],
			"entry_key":            lineup["entry_key"],
			"display_name":         lineup["display_name"],
			"vip_remaining_pct":    vipRemaining,
			"field_remaining_pct":  fieldRemainingPct,
			"uniqueness_delta_pct": uniquenessDelta,
		})
	}

	if len(topSwing) == 0 && len(vipVsField) == 0 && fieldRemainingPct == nil {
		return nil
	}
	return map[string]any{
		"leverage_semantics":         "positive=unique",
		"field_remaining_scope":      "watchlist",
		"field_remaining_source":     fieldRemainingSource,
		"field_remaining_is_partial": fieldRemainingIsPartial,
		"field_remaining_pct":        fieldRemainingPct,
		"top_swing_players":          topSwing,
		"vip_vs_field_leverage":      vipVsField,
	}
}

func ownershipOrZero(entry map[string]any) float64 {
	if isNumber(entry["ownership_remaining_pct"]) {
		return floatValue(entry["ownership_remaining_pct"])
	}
	return 0
}

func trainMetrics(trainClusters map[string]any) map[string]any {
	if trainClusters == nil {
		return nil
	}
	rawClusters, ok := asList(trainClusters["clusters"])
	if !ok || len(rawClusters) == 0 {
		return nil
	}
	clusters := make([]map[string]any, 0, len(rawClusters))
	for _, raw := range rawClusters {
		if cluster, ok := asMap(raw); ok {
			clusters = append(clusters, cluster)
		}
	}
	rankKey := func(cluster map[string]any) (float64, int, float64, string) {
		bestRank := math.Inf(1)
		if isNumber(cluster["best_rank"]) {
			bestRank = floatValue(cluster["best_rank"])
		}
		entryCount := 0
		if isInt(cluster["entry_count"]) {
			entryCount = int(floatValue(cluster["entry_count"]))
		}
		avgPMR := math.Inf(1)
		if isNumber(cluster["avg_pmr"]) {
			avgPMR = floatValue(cluster["avg_pmr"])
		}
		return bestRank, entryCount, avgPMR, asString(cluster["cluster_key"])
	}
	sort.SliceStable(clusters, func(i, j int) bool {
		ri, ci, pi, ki := rankKey(clusters[i])
		rj, cj, pj, kj := rankKey(clusters[j])
		if ri != rj {
			return ri < rj
		}
		if ci != cj {
			return ci > cj
		}
		if pi != pj {
			return pi < pj
		}
		return ki < kj
	})
	ranked := make([]any, 0, len(clusters))
	for index, cluster := range clusters {
		ranked = append(ranked, map[string]any{
			"cluster_key": cluster["cluster_key"],
			"rank":        index + 1,
			"entry_count": cluster["entry_count"],
			"best_rank":   cluster["best_rank"],
			"avg_pmr":     cluster["avg_pmr"],
		})
	}
	const topN = 5
	top := ranked
	if len(top) > topN {
		top = top[:topN]
	}
	return map[string]any{
		"recommended_top_n": topN,
		"ranked_clusters":   ranked,
		"top_clusters":      top,
	}
}

func selectionReasonText(reason any, contestID any) any {
	switch v := reason.(type) {
	case nil:
		return nil
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return nil
		}
		return text
	case map[string]any:
		mode := asString(v["mode"])
		if mode == "" {
			mode = "unknown"
		}
		if mode == "explicit_id" {
			return fmt.Sprintf("explicit_id contest_id=%s", asString(contestID))
		}
		return mode
	}
	return asString(reason)
}

func canonicalContestContract(contest map[string]any, sport string) map[string]any {
	var contestID any
	if !isBlank(contest["contest_id"]) {
		contestID = asString(contest["contest_id"])
	}
	sportText := strings.ToLower(strings.TrimSpace(asString(contest["sport"])))
	if sportText == "" {
		sportText = strings.ToLower(strings.TrimSpace(sport))
	}
	contestKey := contest["contest_key"]
	if isBlank(contestKey) && sportText != "" && contestID != nil {
		contestKey = fmt.Sprintf("%s:%s", sportText, contestID)
	}

	var startTime any
	if parsed := utcISOAny(contest["start_time"]); parsed != nil {
		startTime = *parsed
	} else if parsed := utcISOAny(contest["start_time_utc"]); parsed != nil {
		startTime = *parsed
	}

	entryFeeCents := toIntFlexible(contest["entry_fee_cents"])
	if entryFeeCents == nil {
		entryFeeCents = moneyToCents(contest["entry_fee"])
	}
	prizePoolCents := toIntFlexible(contest["prize_pool_cents"])
	if prizePoolCents == nil {
		prizePoolCents = toIntFlexible(contest["payout_cents"])
	}
	if prizePoolCents == nil {
		prizePoolCents = moneyToCents(contest["prize_pool"])
	}

	entriesCount := toIntFlexible(contest["entries_count"])
	maxEntries := toIntFlexible(contest["max_entries"])
	if maxEntries == nil {
		maxEntries = toIntFlexible(contest["entries"])
	}
	maxEntriesPerUser := toIntFlexible(contest["max_entries_per_user"])
	if maxEntriesPerUser == nil {
		maxEntriesPerUser = toIntFlexible(contest["max_entry_count"])
	}

	canonical := make(map[string]any, len(contest)+4)
	for key, value := range contest {
		canonical[key] = value
	}
	canonical["contest_id"] = contestID
	if isBlank(contestKey) {
		canonical["contest_key"] = nil
	} else {
		canonical["contest_key"] = asString(contestKey)
	}
	canonical["name"] = trimmedOrNil(contest["name"])
	canonical["sport"] = sportText
	canonical["contest_type"] = trimmedOrNil(contest["contest_type"])
	canonical["start_time"] = startTime
	var state any
	if s := NormalizeContestState(contest["state"], contest["completed"]); s != nil {
		state = *s
	}
	canonical["state"] = state
	canonical["entry_fee_cents"] = anyInt(entryFeeCents)
	canonical["prize_pool_cents"] = anyInt(prizePoolCents)
	canonical["currency"] = trimmedOrNil(contest["currency"])
	canonical["max_entries"] = anyInt(maxEntries)
	canonical["max_entries_per_user"] = anyInt(maxEntriesPerUser)
	if entriesCount == nil {
		delete(canonical, "entries_count")
	} else {
		canonical["entries_count"] = *entriesCount
	}
	delete(canonical, "entries")
	delete(canonical, "start_time_utc")
	return canonical
}

func trimmedOrNil(value any) any {
	if isBlank(value) {
		return nil
	}
	text := strings.TrimSpace(asString(value))
	if text == "" {
		return nil
	}
	return text
}

// BuildSportSnapshot reshapes a raw per-sport snapshot into the
// dashboard contract: a canonical contest object carrying standings,
// train clusters, VIP lineups, and derived metrics.
func BuildSportSnapshot(snapshot *Snapshot, generatedAt string) (map[string]any, error) {
	tree, err := ToTree(snapshot)
	if err != nil {
		return nil, err
	}
	return buildSportSnapshotTree(tree, generatedAt), nil
}

func buildSportSnapshotTree(tree map[string]any, generatedAt string) map[string]any {
	normalized := NormalizeForOutput(tree)
	updatedAt := asString(normalized["snapshot_generated_at_utc"])
	if updatedAt == "" {
		updatedAt = generatedAt
	}
	contest, _ := asMap(normalized["contest"])
	if contest == nil {
		contest = map[string]any{}
	}
	selection, _ := asMap(normalized["selection"])
	if selection == nil {
		selection = map[string]any{}
	}
	contestID := selection["selected_contest_id"]
	if isBlank(contestID) {
		contestID = contest["contest_id"]
	}
	truncation, _ := asMap(normalized["truncation"])
	players, _ := asList(normalized["players"])
	if players == nil {
		players = []any{}
	}
	playerLookup := buildPlayerNameLookup(players)
	playerStatusLookup := buildPlayerStatusLookup(players)
	rawStandings, _ := asList(normalized["standings"])
	standingsRows := normalizeStandingsRows(rawStandings)
	standingsByEntryKey := map[string]map[string]any{}
	for _, row := range standingsRows {
		if !isBlank(row["entry_key"]) {
			standingsByEntryKey[asString(row["entry_key"])] = row
		}
	}
	standingsByUsername := uniqueStandingsByDisplayName(standingsRows)

	contestObject := canonicalContestContract(contest, asString(normalized["sport"]))
	contestObject["is_primary"] = true
	for _, key := range []string{
		"entries_count",
		"max_entries",
		"positions_paid",
		"entry_fee_cents",
		"prize_pool_cents",
		"draft_group",
	} {
		if _, ok := contestObject[key]; ok {
			contestObject[key] = anyInt(rankNumeric(contestObject[key]))
		}
	}
	rawCashLine, _ := asMap(normalized["cash_line"])
	if rawCashLine == nil {
		rawCashLine = map[string]any{}
	}
	cashLine := cashLineContract(rawCashLine)

	ownershipSource, hasOwnership := asMap(normalized["ownership"])
	if hasOwnership {
		contestObject["ownership_watchlist"] = ownershipWatchlistContract(ownershipSource, updatedAt)
	}

	if _, ok := asList(normalized["standings"]); ok {
		totalRows := len(standingsRows)
		if truncation != nil {
			if n := toInt(truncation["total_rows_before_truncation"]); n != nil && *n > 0 {
				totalRows = *n
			} else if n := toInt(truncation["total_rows_after_truncation"]); n != nil && *n > 0 {
				totalRows = *n
			}
		}
		standingsRowsAny := make([]any, len(standingsRows))
		for i, row := range standingsRows {
			standingsRowsAny[i] = row
		}
		contestObject["standings"] = map[string]any{
			"updated_at":   updatedAt,
			"rows":         standingsRowsAny,
			"total_rows":   totalRows,
			"is_truncated": truncation != nil && truncation["applied"] == true,
		}
	}

	if trainSource, ok := asList(normalized["train_clusters"]); ok {
		contestObject["train_clusters"] = trainClustersContract(
			trainSource,
			updatedAt,
			playerLookup,
			standingsByEntryKey,
		)
	}

	if vipSource, ok := asList(normalized["vip_lineups"]); ok {
		contestObject["vip_lineups"] = vipLineupsContract(
			vipSource,
			playerLookup,
			playerStatusLookup,
			updatedAt,
			standingsByEntryKey,
			standingsByUsername,
			cashLine,
		)
	}

	metrics := map[string]any{}
	if vipLineups, ok := asList(contestObject["vip_lineups"]); ok {
		if distance := distanceToCashMetrics(vipLineups, cashLine); distance != nil {
			metrics["distance_to_cash"] = distance
		}
		if summary := ownershipSummaryMetrics(vipLineups); summary != nil {
			metrics["ownership_summary"] = summary
		}
	}
	watchlist, _ := asMap(contestObject["ownership_watchlist"])
	vipLineupsList, _ := asList(contestObject["vip_lineups"])
	if threat := threatMetrics(watchlist, vipLineupsList); threat != nil {
		metrics["threat"] = threat
	}
	if hasOwnership {
		if nonCashing := nonCashingMetrics(ownershipSource); nonCashing != nil {
			metrics["non_cashing"] = nonCashing
		}
	}
	if trainContract, ok := asMap(contestObject["train_clusters"]); ok {
		if trains := trainMetrics(trainContract); trains != nil {
			metrics["trains"] = trains
		}
	}
	if len(metrics) > 0 {
		metrics["updated_at"] = updatedAt
		contestObject["metrics"] = metrics
	}
	contestObject["live_metrics"] = map[string]any{
		"updated_at": updatedAt,
		"cash_line":  cashLine,
	}
	for _, key := range []string{
		"ownership",
		"selection",
		"truncation",
		"metadata",
		"snapshot_version",
		"snapshot_generated_at_utc",
	} {
		delete(contestObject, key)
	}

	status := asString(normalized["status"])
	if status == "" {
		status = "ok"
	}
	sportSnapshot := map[string]any{
		"status":     status,
		"updated_at": updatedAt,
		"players":    players,
		"contests":   []any{contestObject},
	}
	if contestID != nil {
		sportSnapshot["primary_contest"] = map[string]any{
			"contest_id":       contestID,
			"contest_key":      contestObject["contest_key"],
			"selection_reason": selectionReasonText(selection["reason"], contestID),
			"selected_at":      generatedAt,
		}
	}
	if !isBlank(normalized["error"]) {
		sportSnapshot["error"] = normalized["error"]
	}
	return sportSnapshot
}
