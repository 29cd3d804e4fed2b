// Package analysis defines the structured result of a piano photo analysis
// and its rendering into a prompt context block for the chat model.
//
// The JSON field names are French because the record round-trips through the
// widget as expertise_result: the shape the vision model produces is the
// shape clients send back on later turns.
//
// All scores use a single 0-10 scale, the global score included.
package analysis

// Record describes the condition of a piano as assessed from photos.
// Every field is best-effort: the vision model fills in what it can and
// rendering substitutes placeholders for whatever is missing.
type Record struct {
	Marque        string `json:"marque,omitempty"`
	Modele        string `json:"modele,omitempty"`
	AgeEstime     string `json:"age_estime,omitempty"`
	TypeMecanisme string `json:"type_mecanisme,omitempty"`

	Verdict             string   `json:"verdict,omitempty"`
	ScoreGlobal         *float64 `json:"score_global,omitempty"`
	RecommandationAchat string   `json:"recommandation_achat,omitempty"`

	Alertes          []string `json:"alertes,omitempty"`
	HistoriqueMarque string   `json:"historique_marque,omitempty"`

	Scores *ConditionScores `json:"scores,omitempty"`

	ProblemesDetectes  []string   `json:"problemes_detectes,omitempty"`
	PointsPositifs     []string   `json:"points_positifs,omitempty"`
	TravauxRecommandes []WorkItem `json:"travaux_recommandes,omitempty"`

	ValeurEstimee *ValueEstimate `json:"valeur_estimee,omitempty"`

	PotentielRestauration      string `json:"potentiel_restauration,omitempty"`
	Urgence                    string `json:"urgence,omitempty"`
	RecommandationContextuelle string `json:"recommandation_contextuelle,omitempty"`
	ProchaineEtape             string `json:"prochaine_etape,omitempty"`

	CommentaireExpert string `json:"commentaire_expert,omitempty"`

	PhotosRecues     []string `json:"photos_recues,omitempty"`
	PhotosSouhaitees []string `json:"photos_souhaitees,omitempty"`
}

// ConditionScores breaks the overall condition into the four areas a
// technician inspects first.
type ConditionScores struct {
	EtatGeneral *SubScore `json:"etat_general,omitempty"`
	Clavier     *SubScore `json:"clavier,omitempty"`
	Meuble      *SubScore `json:"meuble,omitempty"`
	Mecanique   *SubScore `json:"mecanique,omitempty"`
}

// SubScore is one condition sub-score on the 0-10 scale, with a short
// description of what was observed.
type SubScore struct {
	Note        *float64 `json:"note,omitempty"`
	Description string   `json:"description,omitempty"`
}

// WorkItem is one recommended piece of work with its priority tier and an
// estimated cost range.
type WorkItem struct {
	Travail    string `json:"travail,omitempty"`
	Priorite   string `json:"priorite,omitempty"`
	CoutEstime string `json:"cout_estime,omitempty"`
}

// ValueEstimate is the estimated market value as-is and after the
// recommended work.
type ValueEstimate struct {
	TelleQuelle  string `json:"telle_quelle,omitempty"`
	ApresTravaux string `json:"apres_travaux,omitempty"`
}
