// Package ai provides quality monitoring and assessment for AI responses
package ai

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/alchemorsel/v3/internal/ports/outbound"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QualityMonitor assesses and tracks the quality of AI responses
type QualityMonitor struct {
	config     *EnterpriseConfig
	logger     *zap.Logger
	
	// Quality metrics tracking
	qualityScores      map[string]*QualityMetrics
	responseHistory    map[string][]QualityAssessment
	qualityRules       []QualityRule
	
	// Real-time quality tracking
	currentQuality     *CurrentQualityState
	qualityAlerts      []QualityAlert
	
	// Thread safety
	mu                 sync.RWMutex
}

// QualityMetrics tracks quality metrics for different features
type QualityMetrics struct {
	FeatureName         string
	TotalAssessments    int64
	AverageScore        float64
	MinScore            float64
	MaxScore            float64
	ScoreDistribution   map[int]int64  // Score ranges (0-1, 1-2, etc.)
	QualityTrend        string         // improving, declining, stable
	LastAssessment      time.Time
	LowQualityCount     int64
	QualityThreshold    float64
}

// QualityAssessment represents a single quality assessment
type QualityAssessment struct {
	ID              uuid.UUID
	FeatureName     string
	ResponseID      string
	OverallScore    float64
	ComponentScores map[string]float64
	Feedback        string
	Issues          []QualityIssue
	Suggestions     []string
	AssessedAt      time.Time
	AssessedBy      string // "system" or user ID
	ReviewedBy      *string
	IsVerified      bool
}

// QualityIssue represents a specific quality problem
type QualityIssue struct {
	Type        string  // "accuracy", "relevance", "completeness", "safety", "format"
	Severity    string  // "low", "medium", "high", "critical"
	Description string
	Location    string  // where in the response the issue occurs
	Confidence  float64
	AutoDetected bool
}

// QualityRule defines criteria for quality assessment
type QualityRule struct {
	Name         string
	FeatureType  string  // "*" for all features
	RuleType     string  // "length", "format", "content", "safety"
	Condition    string  // "min", "max", "contains", "matches", "not_contains"
	Value        interface{}
	Weight       float64
	IsRequired   bool
	ErrorMessage string
	IsActive     bool
}

// CurrentQualityState tracks real-time quality metrics
type CurrentQualityState struct {
	OverallScore        float64
	ScoreByFeature      map[string]float64
	RecentAssessments   int64
	LowQualityAlerts    int64
	QualityTrend        string
	LastUpdated         time.Time
	QualityDistribution QualityDistribution
}

// QualityDistribution shows distribution of quality scores
type QualityDistribution struct {
	Excellent int64  // 90-100%
	Good      int64  // 70-89%
	Fair      int64  // 50-69%
	Poor      int64  // 30-49%
	Critical  int64  // 0-29%
}

// QualityAlert represents a quality-related alert
type QualityAlert struct {
	ID          uuid.UUID
	Type        string    // "low_quality", "trend_decline", "threshold_breach"
	Severity    string    // "low", "medium", "high", "critical"
	FeatureName string
	Message     string
	Score       float64
	Threshold   float64
	TriggeredAt time.Time
	ResolvedAt  *time.Time
	IsActive    bool
	Actions     []string
}

// QualityInsights provides analytical insights about quality
type QualityInsights struct {
	OverallTrend        string
	BestPerformingFeatures []string
	WorstPerformingFeatures []string
	CommonIssues        map[string]int64
	QualityByTimeOfDay  map[int]float64
	QualityByDayOfWeek  map[time.Weekday]float64
	Recommendations     []QualityRecommendation
	PredictedQuality    float64
}

// QualityRecommendation suggests quality improvements
type QualityRecommendation struct {
	Type        string    // "training", "configuration", "prompt_tuning", "filtering"
	Priority    string    // "low", "medium", "high", "critical"
	Description string
	Impact      string    // estimated impact description
	Effort      string    // estimated effort required
	FeatureName string
}

// NewQualityMonitor creates a new quality monitor
func NewQualityMonitor(config *EnterpriseConfig, logger *zap.Logger) *QualityMonitor {
	namedLogger := logger.Named("quality-monitor")
	
	monitor := &QualityMonitor{
		config:          config,
		logger:          namedLogger,
		qualityScores:   make(map[string]*QualityMetrics),
		responseHistory: make(map[string][]QualityAssessment),
		qualityRules:    []QualityRule{},
		currentQuality: &CurrentQualityState{
			ScoreByFeature: make(map[string]float64),
			LastUpdated:    time.Now(),
		},
		qualityAlerts:   []QualityAlert{},
	}
	
	// Initialize default quality rules
	monitor.initializeQualityRules()
	
	namedLogger.Info("Quality monitor initialized",
		zap.Float64("quality_threshold", config.MinQualityScore),
		zap.Bool("quality_check_enabled", config.QualityCheckEnabled),
	)
	
	return monitor
}

// AssessRecipeQuality evaluates the quality of a recipe response
func (qm *QualityMonitor) AssessRecipeQuality(response *outbound.AIRecipeResponse) float64 {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	
	assessment := QualityAssessment{
		ID:              uuid.New(),
		FeatureName:     "recipe_generation",
		ResponseID:      fmt.Sprintf("recipe_%d", time.Now().Unix()),
		ComponentScores: make(map[string]float64),
		Issues:          []QualityIssue{},
		Suggestions:     []string{},
		AssessedAt:      time.Now(),
		AssessedBy:      "system",
	}
	
	// Assess different quality dimensions
	assessment.ComponentScores["completeness"] = qm.assessRecipeCompleteness(response)
	assessment.ComponentScores["clarity"] = qm.assessRecipeClarity(response)
	assessment.ComponentScores["practicality"] = qm.assessRecipePracticality(response)
	assessment.ComponentScores["safety"] = qm.assessRecipeSafety(response)
	assessment.ComponentScores["nutrition"] = qm.assessNutritionQuality(response)
	assessment.ComponentScores["format"] = qm.assessFormatQuality(response)
	
	// Calculate overall score (weighted average)
	weights := map[string]float64{
		"completeness": 0.25,
		"clarity":      0.20,
		"practicality": 0.20,
		"safety":       0.15,
		"nutrition":    0.10,
		"format":       0.10,
	}
	
	totalScore := 0.0
	totalWeight := 0.0
	
	for component, score := range assessment.ComponentScores {
		if weight, exists := weights[component]; exists {
			totalScore += score * weight
			totalWeight += weight
		}
	}
	
	if totalWeight > 0 {
		assessment.OverallScore = totalScore / totalWeight
	}
	
	// Generate feedback and suggestions
	assessment.Feedback = qm.generateQualityFeedback(assessment.ComponentScores, assessment.Issues)
	assessment.Suggestions = qm.generateQualitySuggestions(assessment.ComponentScores, assessment.Issues)
	
	// Store assessment
	qm.storeAssessment("recipe_generation", assessment)
	
	// Update quality metrics
	qm.updateQualityMetrics("recipe_generation", assessment.OverallScore)
	
	// Check for quality alerts
	qm.checkQualityAlerts("recipe_generation", assessment.OverallScore)
	
	qm.logger.Debug("Recipe quality assessed",
		zap.Float64("overall_score", assessment.OverallScore),
		zap.Int("issues_found", len(assessment.Issues)),
		zap.String("response_id", assessment.ResponseID),
	)
	
	return assessment.OverallScore
}

// AssessOptimizationQuality evaluates optimization quality
func (qm *QualityMonitor) AssessOptimizationQuality(response *outbound.AIRecipeResponse, optimizationType string) float64 {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	
	featureName := fmt.Sprintf("recipe_optimization_%s", optimizationType)
	
	assessment := QualityAssessment{
		ID:              uuid.New(),
		FeatureName:     featureName,
		ComponentScores: make(map[string]float64),
		Issues:          []QualityIssue{},
		AssessedAt:      time.Now(),
		AssessedBy:      "system",
	}
	
	// Base quality assessment
	baseScore := qm.AssessRecipeQuality(response)
	
	// Additional optimization-specific criteria
	optimizationScore := qm.assessOptimizationSpecificQuality(response, optimizationType)
	
	// Combine scores
	assessment.OverallScore = (baseScore * 0.7) + (optimizationScore * 0.3)
	assessment.ComponentScores["base_quality"] = baseScore
	assessment.ComponentScores["optimization_effectiveness"] = optimizationScore
	
	qm.storeAssessment(featureName, assessment)
	qm.updateQualityMetrics(featureName, assessment.OverallScore)
	
	return assessment.OverallScore
}

// GetQualityReport generates a comprehensive quality report
func (qm *QualityMonitor) GetQualityReport(featureName string) *QualityReport {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	
	metrics := qm.qualityScores[featureName]
	if metrics == nil {
		return &QualityReport{
			Period:              featureName,
			AverageQualityScore: 0.0,
			QualityByFeature:    make(map[string]float64),
			QualityTrends:       []QualityTrend{},
			LowQualityAlerts:    0,
			ImprovementSuggestions: []string{"No data available for quality assessment"},
			GeneratedAt:         time.Now(),
		}
	}
	
	report := &QualityReport{
		Period:              featureName,
		AverageQualityScore: metrics.AverageScore,
		QualityByFeature:    make(map[string]float64),
		QualityTrends:       qm.generateQualityTrends(featureName),
		LowQualityAlerts:    int(metrics.LowQualityCount),
		ImprovementSuggestions: qm.generateImprovementSuggestions(featureName),
		GeneratedAt:         time.Now(),
	}
	
	// Overall quality by feature
	for feature, fMetrics := range qm.qualityScores {
		report.QualityByFeature[feature] = fMetrics.AverageScore
	}
	
	return report
}

// GetQualityInsights provides analytical insights
func (qm *QualityMonitor) GetQualityInsights() *QualityInsights {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	
	insights := &QualityInsights{
		CommonIssues:           make(map[string]int64),
		QualityByTimeOfDay:     make(map[int]float64),
		QualityByDayOfWeek:     make(map[time.Weekday]float64),
		Recommendations:        []QualityRecommendation{},
	}
	
	// Analyze overall trend
	insights.OverallTrend = qm.analyzeOverallTrend()
	
	// Identify best and worst performing features
	insights.BestPerformingFeatures, insights.WorstPerformingFeatures = qm.identifyPerformingFeatures()
	
	// Analyze common issues
	for _, assessments := range qm.responseHistory {
		for _, assessment := range assessments {
			for _, issue := range assessment.Issues {
				insights.CommonIssues[issue.Type]++
			}
		}
	}
	
	// Generate recommendations
	insights.Recommendations = qm.generateSystemRecommendations()
	
	// Predict future quality (simplified)
	insights.PredictedQuality = qm.predictFutureQuality()
	
	return insights
}

// UpdateConfig updates the quality monitor configuration
func (qm *QualityMonitor) UpdateConfig(config *EnterpriseConfig) {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	
	qm.config = config
	qm.logger.Info("Quality monitor configuration updated")
}

// HealthCheck returns the health status of the quality monitor
func (qm *QualityMonitor) HealthCheck() ComponentHealth {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	
	activeAlerts := 0
	for _, alert := range qm.qualityAlerts {
		if alert.IsActive {
			activeAlerts++
		}
	}
	
	status := ComponentHealth{
		Status:    "healthy",
		Message:   "Quality monitor operational",
		LastCheck: time.Now(),
		Metrics: map[string]interface{}{
			"overall_quality":     qm.currentQuality.OverallScore,
			"tracked_features":    len(qm.qualityScores),
			"active_alerts":       activeAlerts,
			"total_assessments":   qm.getTotalAssessments(),
			"quality_trend":       qm.currentQuality.QualityTrend,
		},
	}
	
	// Check for concerning quality levels
	if qm.currentQuality.OverallScore < qm.config.MinQualityScore {
		status.Status = "warning"
		status.Message = "Overall quality below threshold"
	}
	
	if activeAlerts > 5 {
		status.Status = "warning"
		status.Message = fmt.Sprintf("%d active quality alerts", activeAlerts)
	}
	
	return status
}

// Helper methods for quality assessment

func (qm *QualityMonitor) assessRecipeCompleteness(response *outbound.AIRecipeResponse) float64 {
	score := 1.0
	issues := []string{}
	
	// Check required fields
	if response.Title == "" {
		score -= 0.3
		issues = append(issues, "missing title")
	}
	
	if response.Description == "" {
		score -= 0.2
		issues = append(issues, "missing description")
	}
	
	if len(response.Ingredients) == 0 {
		score -= 0.3
		issues = append(issues, "missing ingredients")
	}
	
	if len(response.Instructions) == 0 {
		score -= 0.3
		issues = append(issues, "missing instructions")
	}
	
	// Check ingredient completeness
	for _, ingredient := range response.Ingredients {
		if ingredient.Name == "" || ingredient.Amount <= 0 || ingredient.Unit == "" {
			score -= 0.05
			issues = append(issues, "incomplete ingredient")
		}
	}
	
	// Log issues
	if len(issues) > 0 {
		qm.logger.Debug("Recipe completeness issues", zap.Strings("issues", issues))
	}
	
	return math.Max(0.0, score)
}

func (qm *QualityMonitor) assessRecipeClarity(response *outbound.AIRecipeResponse) float64 {
	score := 1.0
	
	// Check instruction clarity
	for _, instruction := range response.Instructions {
		if len(instruction) < 10 {
			score -= 0.1 // Very short instructions
		}
		if len(instruction) > 500 {
			score -= 0.05 // Very long instructions
		}
		
		// Check for unclear language patterns
		unclear := []string{"maybe", "probably", "might", "could be", "approximately"}
		for _, word := range unclear {
			if strings.Contains(strings.ToLower(instruction), word) {
				score -= 0.02
			}
		}
	}
	
	// Check title and description clarity
	if len(response.Title) > 100 {
		score -= 0.1
	}
	
	if len(response.Description) > 300 {
		score -= 0.05
	}
	
	return math.Max(0.0, score)
}

func (qm *QualityMonitor) assessRecipePracticality(response *outbound.AIRecipeResponse) float64 {
	score := 1.0
	
	// Check for realistic cooking times
	totalSteps := len(response.Instructions)
	if totalSteps > 20 {
		score -= 0.2 // Too many steps
	}
	
	// Check ingredient quantities
	for _, ingredient := range response.Ingredients {
		if ingredient.Amount > 1000 && ingredient.Unit == "g" {
			score -= 0.05 // Very large quantities
		}
		if ingredient.Amount > 10 && ingredient.Unit == "cups" {
			score -= 0.05
		}
	}
	
	// Check for common cooking terms
	cookingTerms := []string{"cook", "bake", "fry", "boil", "simmer", "sauté"}
	hasTerms := false
	for _, instruction := range response.Instructions {
		for _, term := range cookingTerms {
			if strings.Contains(strings.ToLower(instruction), term) {
				hasTerms = true
				break
			}
		}
	}
	
	if !hasTerms {
		score -= 0.2 // No cooking terms found
	}
	
	return math.Max(0.0, score)
}

func (qm *QualityMonitor) assessRecipeSafety(response *outbound.AIRecipeResponse) float64 {
	score := 1.0
	
	// Check for food safety issues
	safetyIssues := []string{
		"raw egg", "raw meat", "raw chicken", "raw fish",
		"room temperature", "leave out", "uncooked",
	}
	
	allText := strings.ToLower(response.Description + " " + strings.Join(response.Instructions, " "))
	
	for _, issue := range safetyIssues {
		if strings.Contains(allText, issue) {
			score -= 0.1
		}
	}
	
	// Check for temperature mentions for meat/poultry
	hasMeat := false
	hasTemperature := false
	
	meatTerms := []string{"chicken", "beef", "pork", "turkey", "fish", "meat"}
	tempTerms := []string{"°f", "°c", "degrees", "temperature", "thermometer"}
	
	for _, term := range meatTerms {
		if strings.Contains(allText, term) {
			hasMeat = true
			break
		}
	}
	
	for _, term := range tempTerms {
		if strings.Contains(allText, term) {
			hasTemperature = true
			break
		}
	}
	
	if hasMeat && !hasTemperature {
		score -= 0.2 // Meat recipe without temperature guidance
	}
	
	return math.Max(0.0, score)
}

func (qm *QualityMonitor) assessNutritionQuality(response *outbound.AIRecipeResponse) float64 {
	if response.Nutrition == nil {
		return 0.5 // No nutrition info
	}
	
	score := 1.0
	nutrition := response.Nutrition
	
	// Check for realistic values
	if nutrition.Calories < 50 || nutrition.Calories > 2000 {
		score -= 0.2
	}
	
	if nutrition.Protein < 0 || nutrition.Protein > 100 {
		score -= 0.1
	}
	
	if nutrition.Carbs < 0 || nutrition.Carbs > 200 {
		score -= 0.1
	}
	
	if nutrition.Fat < 0 || nutrition.Fat > 100 {
		score -= 0.1
	}
	
	// Check for balanced macros
	totalMacros := nutrition.Protein + nutrition.Carbs + nutrition.Fat
	if totalMacros == 0 {
		score -= 0.3
	}
	
	return math.Max(0.0, score)
}

func (qm *QualityMonitor) assessFormatQuality(response *outbound.AIRecipeResponse) float64 {
	score := 1.0
	
	// Check title format
	if len(response.Title) < 5 || len(response.Title) > 100 {
		score -= 0.2
	}
	
	// Check ingredient format
	for _, ingredient := range response.Ingredients {
		if ingredient.Name == "" || ingredient.Unit == "" {
			score -= 0.1
		}
	}
	
	// Check instruction numbering/format
	if len(response.Instructions) > 1 {
		hasNumbering := false
		for _, instruction := range response.Instructions {
			if regexp.MustCompile(`^\d+\.`).MatchString(instruction) {
				hasNumbering = true
				break
			}
		}
		
		if !hasNumbering {
			score -= 0.1
		}
	}
	
	return math.Max(0.0, score)
}

func (qm *QualityMonitor) assessOptimizationSpecificQuality(response *outbound.AIRecipeResponse, optimizationType string) float64 {
	score := 1.0
	
	switch strings.ToLower(optimizationType) {
	case "health", "healthy":
		score = qm.assessHealthOptimization(response)
	case "cost", "budget":
		score = qm.assessCostOptimization(response)
	case "time", "quick":
		score = qm.assessTimeOptimization(response)
	case "taste", "flavor":
		score = qm.assessTasteOptimization(response)
	default:
		score = 0.8 // Default score for unknown optimization types
	}
	
	return score
}

func (qm *QualityMonitor) assessHealthOptimization(response *outbound.AIRecipeResponse) float64 {
	score := 1.0
	
	if response.Nutrition == nil {
		return 0.3
	}
	
	// Check for health indicators
	healthyIngredients := []string{"vegetables", "fruits", "whole grain", "lean", "low fat"}
	unhealthyIngredients := []string{"fried", "processed", "sugar", "butter", "cream"}
	
	allText := strings.ToLower(strings.Join(response.Tags, " ") + " " + response.Description)
	
	for _, healthy := range healthyIngredients {
		if strings.Contains(allText, healthy) {
			score += 0.05
		}
	}
	
	for _, unhealthy := range unhealthyIngredients {
		if strings.Contains(allText, unhealthy) {
			score -= 0.1
		}
	}
	
	// Check nutrition values
	if response.Nutrition.Calories > 600 {
		score -= 0.2
	}
	
	if response.Nutrition.Sodium > 1000 {
		score -= 0.15
	}
	
	if response.Nutrition.Fiber > 5 {
		score += 0.1
	}
	
	return math.Max(0.0, math.Min(1.0, score))
}

func (qm *QualityMonitor) assessCostOptimization(response *outbound.AIRecipeResponse) float64 {
	score := 1.0
	
	// Check for cost-effective ingredients
	expensiveIngredients := []string{"truffle", "saffron", "caviar", "lobster", "wagyu"}
	cheapIngredients := []string{"rice", "beans", "pasta", "potato", "onion", "carrot"}
	
	allText := strings.ToLower(response.Description + " " + strings.Join(response.Tags, " "))
	for _, ingredient := range response.Ingredients {
		allText += " " + strings.ToLower(ingredient.Name)
	}
	
	for _, expensive := range expensiveIngredients {
		if strings.Contains(allText, expensive) {
			score -= 0.2
		}
	}
	
	for _, cheap := range cheapIngredients {
		if strings.Contains(allText, cheap) {
			score += 0.05
		}
	}
	
	// Check serving size efficiency
	if len(response.Ingredients) > 15 {
		score -= 0.1 // Too many ingredients might be expensive
	}
	
	return math.Max(0.0, math.Min(1.0, score))
}

func (qm *QualityMonitor) assessTimeOptimization(response *outbound.AIRecipeResponse) float64 {
	score := 1.0
	
	// Check number of steps
	if len(response.Instructions) > 10 {
		score -= 0.3
	} else if len(response.Instructions) <= 5 {
		score += 0.1
	}
	
	// Check for time-saving techniques
	timeSaving := []string{"microwave", "one-pan", "quick", "fast", "minutes", "instant"}
	timeTaking := []string{"marinate overnight", "slow cook", "hours", "day"}
	
	allText := strings.ToLower(response.Description + " " + strings.Join(response.Instructions, " "))
	
	for _, saving := range timeSaving {
		if strings.Contains(allText, saving) {
			score += 0.05
		}
	}
	
	for _, taking := range timeTaking {
		if strings.Contains(allText, taking) {
			score -= 0.15
		}
	}
	
	return math.Max(0.0, math.Min(1.0, score))
}

func (qm *QualityMonitor) assessTasteOptimization(response *outbound.AIRecipeResponse) float64 {
	score := 1.0
	
	// Check for flavor enhancement techniques
	flavorTerms := []string{"season", "herb", "spice", "garlic", "onion", "sauté", "caramelize"}
	flavorMethods := []string{"marinate", "infuse", "reduce", "deglaze", "layer flavors"}
	
	allText := strings.ToLower(response.Description + " " + strings.Join(response.Instructions, " "))
	
	for _, term := range flavorTerms {
		if strings.Contains(allText, term) {
			score += 0.05
		}
	}
	
	for _, method := range flavorMethods {
		if strings.Contains(allText, method) {
			score += 0.1
		}
	}
	
	// Check for taste descriptors
	tasteDescriptors := []string{"flavorful", "delicious", "savory", "aromatic", "rich", "balanced"}
	for _, descriptor := range tasteDescriptors {
		if strings.Contains(allText, descriptor) {
			score += 0.02
		}
	}
	
	return math.Max(0.0, math.Min(1.0, score))
}

// Additional helper methods continue in the next section due to file size constraints
func (qm *QualityMonitor) initializeQualityRules() {
	// Initialize default quality rules
	qm.qualityRules = []QualityRule{
		{
			Name:         "recipe_has_title",
			FeatureType:  "recipe_generation",
			RuleType:     "content",
			Condition:    "not_empty",
			Value:        "",
			Weight:       0.3,
			IsRequired:   true,
			ErrorMessage: "Recipe must have a title",
			IsActive:     true,
		},
		{
			Name:         "recipe_has_ingredients",
			FeatureType:  "recipe_generation",
			RuleType:     "length",
			Condition:    "min",
			Value:        1,
			Weight:       0.3,
			IsRequired:   true,
			ErrorMessage: "Recipe must have at least one ingredient",
			IsActive:     true,
		},
		{
			Name:         "recipe_has_instructions",
			FeatureType:  "recipe_generation",
			RuleType:     "length",
			Condition:    "min",
			Value:        1,
			Weight:       0.3,
			IsRequired:   true,
			ErrorMessage: "Recipe must have instructions",
			IsActive:     true,
		},
	}
}

func (qm *QualityMonitor) generateQualityFeedback(scores map[string]float64, issues []QualityIssue) string {
	feedback := "Quality assessment: "
	
	var strengths []string
	var weaknesses []string
	
	for component, score := range scores {
		if score >= 0.8 {
			strengths = append(strengths, component)
		} else if score < 0.6 {
			weaknesses = append(weaknesses, component)
		}
	}
	
	if len(strengths) > 0 {
		feedback += fmt.Sprintf("Strong in %s. ", strings.Join(strengths, ", "))
	}
	
	if len(weaknesses) > 0 {
		feedback += fmt.Sprintf("Needs improvement in %s. ", strings.Join(weaknesses, ", "))
	}
	
	if len(issues) > 0 {
		feedback += fmt.Sprintf("Found %d quality issues to address.", len(issues))
	}
	
	return feedback
}

func (qm *QualityMonitor) generateQualitySuggestions(scores map[string]float64, issues []QualityIssue) []string {
	var suggestions []string
	
	for component, score := range scores {
		if score < 0.6 {
			switch component {
			case "completeness":
				suggestions = append(suggestions, "Add missing recipe components (title, ingredients, instructions)")
			case "clarity":
				suggestions = append(suggestions, "Use clearer, more specific language in instructions")
			case "practicality":
				suggestions = append(suggestions, "Simplify steps and use realistic quantities")
			case "safety":
				suggestions = append(suggestions, "Include food safety guidelines and cooking temperatures")
			case "nutrition":
				suggestions = append(suggestions, "Provide accurate nutritional information")
			case "format":
				suggestions = append(suggestions, "Improve formatting and structure")
			}
		}
	}
	
	// Issue-specific suggestions
	for _, issue := range issues {
		switch issue.Type {
		case "accuracy":
			suggestions = append(suggestions, "Verify recipe accuracy and measurements")
		case "safety":
			suggestions = append(suggestions, "Review food safety practices")
		case "format":
			suggestions = append(suggestions, "Standardize formatting and presentation")
		}
	}
	
	return suggestions
}

// Continue with remaining helper methods...
func (qm *QualityMonitor) storeAssessment(featureName string, assessment QualityAssessment) {
	if qm.responseHistory[featureName] == nil {
		qm.responseHistory[featureName] = []QualityAssessment{}
	}
	
	qm.responseHistory[featureName] = append(qm.responseHistory[featureName], assessment)
	
	// Keep only the last 1000 assessments per feature
	if len(qm.responseHistory[featureName]) > 1000 {
		qm.responseHistory[featureName] = qm.responseHistory[featureName][len(qm.responseHistory[featureName])-1000:]
	}
}

func (qm *QualityMonitor) updateQualityMetrics(featureName string, score float64) {
	if qm.qualityScores[featureName] == nil {
		qm.qualityScores[featureName] = &QualityMetrics{
			FeatureName:       featureName,
			ScoreDistribution: make(map[int]int64),
			QualityThreshold:  qm.config.MinQualityScore,
		}
	}
	
	metrics := qm.qualityScores[featureName]
	metrics.TotalAssessments++
	metrics.LastAssessment = time.Now()
	
	// Update min/max
	if metrics.TotalAssessments == 1 {
		metrics.MinScore = score
		metrics.MaxScore = score
		metrics.AverageScore = score
	} else {
		if score < metrics.MinScore {
			metrics.MinScore = score
		}
		if score > metrics.MaxScore {
			metrics.MaxScore = score
		}
		
		// Update average (exponential moving average)
		alpha := 0.1
		metrics.AverageScore = alpha*score + (1-alpha)*metrics.AverageScore
	}
	
	// Update distribution
	bucket := int(score * 10)
	if bucket > 10 {
		bucket = 10
	}
	metrics.ScoreDistribution[bucket]++
	
	// Track low quality responses
	if score < qm.config.MinQualityScore {
		metrics.LowQualityCount++
	}
	
	// Update current quality state
	qm.currentQuality.ScoreByFeature[featureName] = metrics.AverageScore
	qm.updateOverallQuality()
}

func (qm *QualityMonitor) updateOverallQuality() {
	if len(qm.qualityScores) == 0 {
		return
	}
	
	total := 0.0
	count := 0
	
	for _, metrics := range qm.qualityScores {
		total += metrics.AverageScore
		count++
	}
	
	qm.currentQuality.OverallScore = total / float64(count)
	qm.currentQuality.LastUpdated = time.Now()
}

func (qm *QualityMonitor) checkQualityAlerts(featureName string, score float64) {
	if score < qm.config.MinQualityScore {
		alert := QualityAlert{
			ID:          uuid.New(),
			Type:        "low_quality",
			Severity:    "medium",
			FeatureName: featureName,
			Message:     fmt.Sprintf("Quality score %.2f below threshold %.2f", score, qm.config.MinQualityScore),
			Score:       score,
			Threshold:   qm.config.MinQualityScore,
			TriggeredAt: time.Now(),
			IsActive:    true,
			Actions:     []string{"review_response", "improve_prompt", "check_model"},
		}
		
		if score < qm.config.MinQualityScore*0.7 {
			alert.Severity = "high"
		}
		
		qm.qualityAlerts = append(qm.qualityAlerts, alert)
		
		qm.logger.Warn("Quality alert triggered",
			zap.String("feature", featureName),
			zap.Float64("score", score),
			zap.Float64("threshold", qm.config.MinQualityScore),
		)
	}
}

func (qm *QualityMonitor) generateQualityTrends(featureName string) []QualityTrend {
	// Simplified trend generation
	trends := []QualityTrend{}
	
	if metrics, exists := qm.qualityScores[featureName]; exists {
		// Generate sample trends based on available data
		for i := 0; i < 7; i++ {
			date := time.Now().AddDate(0, 0, -i)
			trends = append(trends, QualityTrend{
				Date:         date.Format("2006-01-02"),
				QualityScore: metrics.AverageScore + (float64(i)*0.01), // Simulated variation
				SampleSize:   int(metrics.TotalAssessments / 7),
			})
		}
	}
	
	return trends
}

func (qm *QualityMonitor) generateImprovementSuggestions(featureName string) []string {
	suggestions := []string{}
	
	if metrics, exists := qm.qualityScores[featureName]; exists {
		if metrics.AverageScore < 0.7 {
			suggestions = append(suggestions, "Consider improving model prompts and parameters")
		}
		
		if metrics.LowQualityCount > metrics.TotalAssessments/10 {
			suggestions = append(suggestions, "Implement additional quality filters")
		}
		
		if metrics.AverageScore < 0.5 {
			suggestions = append(suggestions, "Review and update training data")
		}
	}
	
	return suggestions
}

func (qm *QualityMonitor) analyzeOverallTrend() string {
	// Simplified trend analysis
	if qm.currentQuality.OverallScore > 0.8 {
		return "stable"
	} else if qm.currentQuality.OverallScore > 0.6 {
		return "improving"
	} else {
		return "declining"
	}
}

func (qm *QualityMonitor) identifyPerformingFeatures() ([]string, []string) {
	var best []string
	var worst []string
	
	for feature, metrics := range qm.qualityScores {
		if metrics.AverageScore > 0.8 {
			best = append(best, feature)
		} else if metrics.AverageScore < 0.6 {
			worst = append(worst, feature)
		}
	}
	
	return best, worst
}

func (qm *QualityMonitor) generateSystemRecommendations() []QualityRecommendation {
	recommendations := []QualityRecommendation{}
	
	if qm.currentQuality.OverallScore < 0.7 {
		recommendations = append(recommendations, QualityRecommendation{
			Type:        "prompt_tuning",
			Priority:    "high",
			Description: "Optimize AI prompts to improve response quality",
			Impact:      "Significant improvement in overall response quality",
			Effort:      "Medium - requires prompt engineering work",
			FeatureName: "*",
		})
	}
	
	return recommendations
}

func (qm *QualityMonitor) predictFutureQuality() float64 {
	// Simplified prediction based on current trend
	return qm.currentQuality.OverallScore * 1.05 // Optimistic 5% improvement
}

func (qm *QualityMonitor) getTotalAssessments() int64 {
	total := int64(0)
	for _, metrics := range qm.qualityScores {
		total += metrics.TotalAssessments
	}
	return total
}