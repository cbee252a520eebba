package worker

import "agridefender/models"

// generateRecommendations produces the action list attached to a new
// detection. High and critical threats get the aggressive measures; lower
// severities get monitoring guidance. Two general entries close every list.
func generateRecommendations(threatType models.ThreatType, threatLevel models.ThreatLevel) []string {
	urgent := threatLevel == models.LevelHigh || threatLevel == models.LevelCritical

	var recommendations []string
	switch threatType {
	case models.ThreatFungal:
		recommendations = append(recommendations, "Inspect affected areas for signs of fungal growth")
		if urgent {
			recommendations = append(recommendations,
				"Apply approved fungicide treatment immediately",
				"Consider crop isolation measures")
		} else {
			recommendations = append(recommendations,
				"Monitor closely for 48 hours",
				"Prepare fungicide application equipment")
		}
	case models.ThreatBacterial:
		recommendations = append(recommendations, "Test plant tissue samples to confirm bacterial infection")
		if urgent {
			recommendations = append(recommendations,
				"Remove and destroy infected plants",
				"Apply copper-based bactericide to surrounding areas")
		} else {
			recommendations = append(recommendations,
				"Reduce overhead irrigation to minimize spread")
		}
	case models.ThreatViral:
		recommendations = append(recommendations,
			"Identify and control insect vectors in the area",
			"Remove infected plants if virus is confirmed")
		if urgent {
			recommendations = append(recommendations,
				"Establish buffer zones around affected areas",
				"Implement strict decontamination for field workers and equipment")
		}
	case models.ThreatPest:
		recommendations = append(recommendations, "Deploy traps to monitor pest population")
		if urgent {
			recommendations = append(recommendations,
				"Apply appropriate pesticide treatment",
				"Consider biological control methods")
		} else {
			recommendations = append(recommendations,
				"Increase monitoring frequency")
		}
	case models.ThreatBioweapon:
		recommendations = append(recommendations,
			"Immediately restrict access to affected area",
			"Contact agricultural security authorities",
			"Document all observations and secure evidence",
			"Do NOT attempt remediation without expert guidance")
	}

	recommendations = append(recommendations,
		"Document all observations with photos and notes",
		"Update AgriDefender system with field observations")

	return recommendations
}
