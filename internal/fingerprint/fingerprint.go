package fingerprint

// fingerprint.go — digests canónicos para dedupe y settlement.
//
// Todo acá es puro: mismas entradas, mismo digest, sin reloj ni estado.
// La clave del settlement fingerprint es lo que EXCLUYE: timestamps y
// metadata mutable jamás entran al digest, así un re-run sobre el mismo
// score final nunca produce un fingerprint nuevo.

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/bockeljd/basement-bets-sub000/internal/domain"
)

// NearDupeWindow es el bucket temporal del fingerprint de near-duplicados.
const NearDupeWindow = 5 * time.Minute

// Normalize canonicaliza texto crudo antes de hashear: trim, colapsa runs
// de whitespace internos (incluye saltos de línea) y pasa a minúsculas.
// Diferencias cosméticas (espacio final, CRLF) no cambian el hash.
func Normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// ContentHash es el digest sha256 (hex) del texto normalizado.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}

// SlipHash calcula el hash del texto que originó una apuesta. Para entradas
// estructurales sin texto, usar SlipHashFields.
func SlipHash(rawText string) string {
	return ContentHash(rawText)
}

// SlipHashFields produce un hash estable a partir de los campos canónicos
// de una apuesta sin texto de origen (entrada manual estructurada).
func SlipHashFields(accountID, description, selection string, placedAt time.Time, stake, odds float64) string {
	parts := []string{
		accountID,
		Normalize(description),
		NormalizeSelection(selection),
		placedAt.UTC().Format(time.RFC3339),
		formatFloat(stake),
		formatFloat(odds),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// NormalizeSelection canonicaliza una selección para matching laxo:
// minúsculas y sin puntuación, de modo que variantes textuales menores
// no evadan la detección de near-duplicados.
func NormalizeSelection(selection string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(selection) {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		sb.WriteRune(r)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// Bucket trunca un timestamp al bucket de 5 minutos del near-dupe matching.
func Bucket(t time.Time) time.Time {
	return t.UTC().Truncate(NearDupeWindow)
}

// NearDupe es el fingerprint grueso de una apuesta: sportsbook, bucket de
// placedAt, stake, cuota y selección normalizada. Dos apuestas con el mismo
// NearDupe son candidatas a duplicado que requieren confirmación humana.
func NearDupe(sportsbook string, placedAt time.Time, stake, odds float64, selection string) string {
	parts := []string{
		strings.ToLower(sportsbook),
		strconv.FormatInt(Bucket(placedAt).Unix(), 10),
		formatFloat(stake),
		formatFloat(odds),
		NormalizeSelection(selection),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// Settlement es el fingerprint de una decisión de grading. Cubre el outcome
// real del evento, el mercado, el lado, la línea y la versión de la lógica
// de grading — y nada más. Ninguna metadata mutable ni timestamp participa.
func Settlement(eventID string, homeScore, awayScore int, market domain.MarketType, side domain.Side, line *float64, gradingVersion int) string {
	lineStr := "-"
	if line != nil {
		lineStr = formatFloat(*line)
	}
	parts := []string{
		eventID,
		strconv.Itoa(homeScore),
		strconv.Itoa(awayScore),
		string(market),
		string(side),
		lineStr,
		"v" + strconv.Itoa(gradingVersion),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// formatFloat serializa un float de forma estable (sin ceros colgantes).
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
