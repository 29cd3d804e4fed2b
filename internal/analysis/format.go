package analysis

import (
	"fmt"
	"strings"
)

// notAvailable stands in for any scalar field the analysis did not fill.
// Lines are never dropped for missing scalars; only empty lists are omitted.
const notAvailable = "N/A"

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func scoreOrNA(score *float64) string {
	if score == nil {
		return notAvailable
	}
	return fmt.Sprintf("%g/10", *score)
}

// FormatContext renders a Record into the system context block handed to the
// chat model. The ordering is deliberate and load-bearing: the model
// summarizes the block roughly top to bottom, so identity and verdict come
// first and the photo instructions close it out. Tests pin the order.
func FormatContext(rec *Record) string {
	var b strings.Builder

	b.WriteString("Résultat d'expertise IA disponible pour ce piano :\n")
	fmt.Fprintf(&b, "- Marque : %s\n", orNA(rec.Marque))
	fmt.Fprintf(&b, "- Modèle : %s\n", orNA(rec.Modele))
	fmt.Fprintf(&b, "- Époque estimée : %s\n", orNA(rec.AgeEstime))
	fmt.Fprintf(&b, "- Verdict : %s\n", orNA(rec.Verdict))
	fmt.Fprintf(&b, "- Score global : %s\n", scoreOrNA(rec.ScoreGlobal))
	fmt.Fprintf(&b, "- Type de mécanisme : %s\n", orNA(rec.TypeMecanisme))
	fmt.Fprintf(&b, "- Recommandation d'achat : %s\n", orNA(rec.RecommandationAchat))

	if len(rec.Alertes) > 0 {
		b.WriteString("\nALERTES IMPORTANTES :\n")
		for _, alerte := range rec.Alertes {
			fmt.Fprintf(&b, "- %s\n", alerte)
		}
	}

	if strings.TrimSpace(rec.HistoriqueMarque) != "" {
		fmt.Fprintf(&b, "\nHistorique de la marque : %s\n", rec.HistoriqueMarque)
	}

	writeScores(&b, rec.Scores)

	writeList(&b, "Problèmes détectés :", rec.ProblemesDetectes)
	writeList(&b, "Points positifs :", rec.PointsPositifs)

	if len(rec.TravauxRecommandes) > 0 {
		b.WriteString("\nTravaux recommandés :\n")
		for _, w := range rec.TravauxRecommandes {
			fmt.Fprintf(&b, "- %s (priorité : %s, coût estimé : %s)\n",
				orNA(w.Travail), orNA(w.Priorite), orNA(w.CoutEstime))
		}
	}

	b.WriteString("\nValeur estimée :\n")
	if rec.ValeurEstimee != nil {
		fmt.Fprintf(&b, "- Telle quelle : %s\n", orNA(rec.ValeurEstimee.TelleQuelle))
		fmt.Fprintf(&b, "- Après travaux : %s\n", orNA(rec.ValeurEstimee.ApresTravaux))
	} else {
		fmt.Fprintf(&b, "- Telle quelle : %s\n", notAvailable)
		fmt.Fprintf(&b, "- Après travaux : %s\n", notAvailable)
	}

	writeOptionalLine(&b, "Potentiel de restauration", rec.PotentielRestauration)
	writeOptionalLine(&b, "Urgence", rec.Urgence)
	writeOptionalLine(&b, "Recommandation contextuelle", rec.RecommandationContextuelle)
	writeOptionalLine(&b, "Prochaine étape", rec.ProchaineEtape)

	fmt.Fprintf(&b, "\nCommentaire expert : %s\n", orNA(rec.CommentaireExpert))

	b.WriteString("\nConsignes pour la conversation :\n")
	b.WriteString("- Utilise toutes ces informations de façon naturelle et conversationnelle, sans te contenter de les énumérer.\n")
	if len(rec.PhotosRecues) > 0 {
		fmt.Fprintf(&b, "- Photos déjà reçues (ne pas les redemander) : %s.\n",
			strings.Join(rec.PhotosRecues, ", "))
	}
	if len(rec.PhotosSouhaitees) > 0 {
		fmt.Fprintf(&b, "- Photos supplémentaires encore utiles : %s.\n",
			strings.Join(rec.PhotosSouhaitees, ", "))
	} else {
		b.WriteString("- Aucune photo supplémentaire n'est nécessaire.\n")
	}

	return b.String()
}

func writeScores(b *strings.Builder, scores *ConditionScores) {
	if scores == nil {
		return
	}
	type labeled struct {
		label string
		score *SubScore
	}
	all := []labeled{
		{"État général", scores.EtatGeneral},
		{"Clavier", scores.Clavier},
		{"Meuble", scores.Meuble},
		{"Mécanique visible", scores.Mecanique},
	}
	wroteHeader := false
	for _, s := range all {
		if s.score == nil {
			continue
		}
		if !wroteHeader {
			b.WriteString("\nÉtat détaillé :\n")
			wroteHeader = true
		}
		fmt.Fprintf(b, "- %s : %s", s.label, scoreOrNA(s.score.Note))
		if strings.TrimSpace(s.score.Description) != "" {
			fmt.Fprintf(b, " (%s)", s.score.Description)
		}
		b.WriteString("\n")
	}
}

func writeList(b *strings.Builder, header string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n", header)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func writeOptionalLine(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "\n%s : %s\n", label, value)
}
