// Package criteria holds the seeded rubric the judges score against.
//
// The nine criteria are static reference data for the pitch competition;
// each one is scored by selecting exactly one of four levels.
package criteria

import "github.com/brianes/pitchscore/internal/domain/model"

// DefaultTotemID is the totem seeded on first start so a display client
// can connect before any admin action.
const DefaultTotemID = "totem-1"

// Count is the number of rubric criteria.
const Count = 9

// Defaults returns the seeded rubric criteria in presentation order.
func Defaults() []model.Criterion {
	return []model.Criterion{
		{
			ID:          "criterion-1",
			Name:        "Problema y necesidad del mercado",
			Description: "Claridad, relevancia y justificación del problema",
			MaxScore:    model.MaxScore,
			Levels: []model.RubricLevel{
				{Level: 4, Label: "Excelente", Description: "Problema claramente definido, con datos actualizados y justificación sólida"},
				{Level: 3, Label: "Bueno", Description: "Problema definido y con alguna justificación mediante datos"},
				{Level: 2, Label: "Satisfactorio", Description: "Problema poco claro o con justificación débil"},
				{Level: 1, Label: "Deficiente", Description: "No se identifica claramente el problema"},
			},
		},
		{
			ID:          "criterion-2",
			Name:        "Propuesta única de valor e impacto",
			Description: "Diferenciación, resolución del problema, impacto",
			MaxScore:    model.MaxScore,
			Levels: []model.RubricLevel{
				{Level: 4, Label: "Excelente", Description: "Propuesta clara, original y con alto impacto en clientes o comunidad"},
				{Level: 3, Label: "Bueno", Description: "Propuesta clara, con elementos diferenciadores y algún impacto"},
				{Level: 2, Label: "Satisfactorio", Description: "Propuesta poco clara o poco diferenciadora"},
				{Level: 1, Label: "Deficiente", Description: "No se presenta propuesta clara ni su impacto"},
			},
		},
		{
			ID:          "criterion-3",
			Name:        "Perfil del cliente ideal y tamaño del mercado",
			Description: "Definición de cliente y estimación del mercado",
			MaxScore:    model.MaxScore,
			Levels: []model.RubricLevel{
				{Level: 4, Label: "Excelente", Description: "Cliente ideal bien definido con datos y mercado claramente estimado"},
				{Level: 3, Label: "Bueno", Description: "Cliente definido con estimaciones aceptables del mercado"},
				{Level: 2, Label: "Satisfactorio", Description: "Cliente definido de forma general sin estimaciones claras"},
				{Level: 1, Label: "Deficiente", Description: "No se identifica al cliente ideal ni el tamaño del mercado"},
			},
		},
		{
			ID:          "criterion-4",
			Name:        "Estrategia de mercadotecnia",
			Description: "Precio, distribución y promoción",
			MaxScore:    model.MaxScore,
			Levels: []model.RubricLevel{
				{Level: 4, Label: "Excelente", Description: "Estrategia integral, coherente y bien fundamentada"},
				{Level: 3, Label: "Bueno", Description: "Estrategia clara, con coherencia entre los elementos"},
				{Level: 2, Label: "Satisfactorio", Description: "Estrategia incompleta o poco detallada"},
				{Level: 1, Label: "Deficiente", Description: "Estrategia ausente o confusa"},
			},
		},
		{
			ID:          "criterion-5",
			Name:        "Análisis de la competencia",
			Description: "Identificación, comparación y diferenciación",
			MaxScore:    model.MaxScore,
			Levels: []model.RubricLevel{
				{Level: 4, Label: "Excelente", Description: "Análisis profundo con comparativas claras y estrategias diferenciadoras"},
				{Level: 3, Label: "Bueno", Description: "Análisis adecuado con comparación parcial"},
				{Level: 2, Label: "Satisfactorio", Description: "Análisis superficial, sin estrategias claras"},
				{Level: 1, Label: "Deficiente", Description: "No se realiza análisis de competencia"},
			},
		},
		{
			ID:          "criterion-6",
			Name:        "Metas a corto y mediano plazo",
			Description: "Claridad, temporalidad y medición",
			MaxScore:    model.MaxScore,
			Levels: []model.RubricLevel{
				{Level: 4, Label: "Excelente", Description: "Metas claras, alcanzables y bien medidas a 1 y 3 años"},
				{Level: 3, Label: "Bueno", Description: "Metas definidas con algunos indicadores medibles"},
				{Level: 2, Label: "Satisfactorio", Description: "Metas generales sin indicadores claros"},
				{Level: 1, Label: "Deficiente", Description: "No se presentan metas concretas"},
			},
		},
		{
			ID:          "criterion-7",
			Name:        "Prototipo del producto o servicio",
			Description: "Representación visual o funcional",
			MaxScore:    model.MaxScore,
			Levels: []model.RubricLevel{
				{Level: 4, Label: "Excelente", Description: "Prototipo funcional o visual detallado, claro y viable"},
				{Level: 3, Label: "Bueno", Description: "Prototipo básico que permite entender el producto o servicio"},
				{Level: 2, Label: "Satisfactorio", Description: "Prototipo poco claro o incompleto"},
				{Level: 1, Label: "Deficiente", Description: "No se presenta ningún tipo de prototipo"},
			},
		},
		{
			ID:          "criterion-8",
			Name:        "Resumen financiero",
			Description: "Proyecciones, costos e ingresos",
			MaxScore:    model.MaxScore,
			Levels: []model.RubricLevel{
				{Level: 4, Label: "Excelente", Description: "Análisis completo, coherente y sustentado con datos"},
				{Level: 3, Label: "Bueno", Description: "Análisis aceptable con proyecciones realistas"},
				{Level: 2, Label: "Satisfactorio", Description: "Proyecciones poco claras o con errores evidentes"},
				{Level: 1, Label: "Deficiente", Description: "No se presenta resumen financiero o es inadecuado"},
			},
		},
		{
			ID:          "criterion-9",
			Name:        "Preguntas y respuestas ante los jueces",
			Description: "Claridad, seguridad y dominio del proyecto",
			MaxScore:    model.MaxScore,
			Levels: []model.RubricLevel{
				{Level: 4, Label: "Excelente", Description: "Responden con claridad, seguridad y dominio total del tema"},
				{Level: 3, Label: "Bueno", Description: "Responden con buena claridad y conocimiento general del proyecto"},
				{Level: 2, Label: "Satisfactorio", Description: "Respuestas vagas, poco claras o con dudas evidentes"},
				{Level: 1, Label: "Deficiente", Description: "No responden adecuadamente o desconocen aspectos del proyecto"},
			},
		},
	}
}
