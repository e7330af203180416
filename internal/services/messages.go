package services

import (
	"fmt"
	"strings"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
)

// User-facing texts
const (
	msgDisclaimer = `⚠️*INFORMATION IMPORTANTE*⚠️

🔒 *Confidentialité :* Cette conversation est PRIVÉE et toutes les données que vous fournirez sont collectées de manière SÉCURISÉE et confidentielle.

⚖️ *Aspect Légal :* La soumission de résultats électoraux via cette plateforme est EXCLUSIVEMENT réservée aux personnes officiellement désignées par l' *Union Progressiste le Renouveau (UP)*.

🚨 *Conséquences :* Toute soumission frauduleuse, falsifiée ou non autorisée entraînera des POURSUITES JUDICIAIRES conformément au *code du numérique au Bénin*. Si vous n'êtes PAS habilité(e) par l'UP à soumettre des résultats, veuillez vous ABSTENIR de continuer.

Tapez *1* pour accepter ou *0* pour quitter.`

	msgDisclaimerReprompt = "⚠️ Vous devez taper *1* pour accepter et continuer, ou *0* pour quitter."
	msgCancelled          = "❌ Opération annulée.\n\nEnvoyez un nouveau message pour revenir au menu d'accueil merci."
	msgUnexpectedError    = "❌ Une erreur inattendue est survenue. Veuillez réessayer plus tard."

	msgAskNom       = "📝 Commençons votre inscription.\n\nÉcrivez votre *NOM* de famille (ou 0 pour annuler) :"
	msgAskPrenom    = "Écrivez vos *PRÉNOMS* :"
	msgAskTelephone = "Entrez votre *NUMÉRO DE TÉLÉPHONE* (Commencez par 229, ex: 2290197XXXXXX) :"
	msgEmptyAnswer  = "❌ Réponse vide. Réessayez :"
	msgBadPhone     = "❌ Numéro invalide. Il doit commencer par 229 et avoir au moins 11 chiffres. Réessayez :"
	msgPhoneTaken   = "❌ Ce numéro est déjà enregistré."
	msgRegisterFail = "❌ Erreur lors de l'inscription. Veuillez réessayer."

	msgBadElectionType = "❌ Option invalide. Tapez 1, 2 ou 3 :"
	msgBadIndex        = "❌ Numéro invalide. Réessayez :"
	msgFetchFailed     = "❌ Impossible de récupérer la liste pour le moment. Veuillez réessayer plus tard."
	msgAskBulletinsNul = "🔢 Nombre de bulletins nuls :"
	msgDigitsOnly      = "❌ Entrez uniquement des chiffres :"
	msgSubmitCancelled = "❌ Opération annulée."
	msgSubmitFailed    = "❌ Une erreur est survenue lors de l'enregistrement. Veuillez réessayer."
	msgSubmitSaved     = "✅ Résultats enregistrés !\n\n📸 Envoyez maintenant la *PHOTO du PV* (ou 0 pour terminer)."
	msgAskPhoto        = "📸 Envoyez la *PHOTO du PV* (ou 0 pour terminer)."
	msgDoneNoPhoto     = "✅ Soumission terminée.\n\nEnvoyez un nouveau message pour revenir au menu d'accueil merci."

	msgNoPhotoExpected = "❌ Aucune photo attendue pour le moment."
	msgPhotoSaved      = "✅ Image du PV sauvegardée !\n\nEnvoyez un nouveau message pour revenir au menu d'accueil merci."
	msgPhotoFailed     = "❌ Erreur lors de la sauvegarde. Réessayez."
)

var emptyLevelMessages = map[models.Level]string{
	models.LevelDepartment:     "❌ Aucun département disponible.",
	models.LevelCommune:        "❌ Aucune commune trouvée pour ce département.",
	models.LevelArrondissement: "❌ Aucun arrondissement trouvé pour cette commune.",
	models.LevelVillage:        "❌ Aucun village/quartier trouvé pour cet arrondissement.",
	models.LevelCentre:         "❌ Aucun centre de vote trouvé pour cet arrondissement.",
	models.LevelPoste:          "❌ Aucun poste de vote trouvé.",
}

var placeNames = map[models.Level]string{
	models.LevelArrondissement: "cet arrondissement",
	models.LevelVillage:        "ce village/quartier",
	models.LevelPoste:          "ce poste",
}

func mainMenuText(user *models.UserProfile) string {
	var b strings.Builder
	b.WriteString("*Bienvenue sur PV-COLLECT*\n\n")
	b.WriteString("_Plateforme simplifiée de collecte des résultats de l'Union Progressiste le Renouveau_\n\n")
	if user == nil {
		b.WriteString("1- Je veux m'inscrire\n\n")
		b.WriteString("*Tapez 1 pour commencer* (ou 0 pour quitter)")
		return b.String()
	}
	fmt.Fprintf(&b, "Bonjour *%s* !\n\n", user.FullName())
	b.WriteString("1- J'envoie des résultats\n")
	b.WriteString("2- Je modifie un résultat\n\n")
	b.WriteString("*Tapez le chiffre correspondant* (ou 0 pour quitter)")
	return b.String()
}

func electionTypeMenu(user *models.UserProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Bienvenue, *%s* !\n\n", user.FullName())
	b.WriteString("*Choisissez le TYPE d'ÉLECTION :*\n\n")
	b.WriteString("1- Législatives\n")
	b.WriteString("2- Communales\n")
	b.WriteString("3- Locales\n\n")
	b.WriteString("👉 Répondez avec le *numéro* correspondant (ou 0 pour annuler)")
	return b.String()
}

func registrationSuccessText(user *models.UserProfile) string {
	return fmt.Sprintf("✅ Inscription réussie *%s* !\n\nVous pouvez maintenant soumettre vos résultats.", user.FullName())
}

func partyPrompt(party string) string {
	return fmt.Sprintf("Suffrages *%s* :", party)
}

func submittedByOtherText(level models.Level, by *models.UserProfile) string {
	who := "un autre représentant"
	if by != nil && strings.TrimSpace(by.FullName()) != "" {
		who = "*" + by.FullName() + "*"
	}
	return fmt.Sprintf("❌ Non autorisé.\n\n%s a déjà été soumis par %s.\nVous ne pouvez pas modifier les résultats d'un autre représentant.",
		capitalize(placeNames[level]), who)
}

func alreadySubmittedText(level models.Level) string {
	return fmt.Sprintf("⚠️ Vous avez déjà soumis pour %s.\n\nUtilisez l'option *2- Je modifie un résultat* du menu principal pour changer vos résultats.",
		placeNames[level])
}

// summaryText renders every count with its share of the total
func summaryText(d *models.SubmitData) string {
	total := d.Total()

	var b strings.Builder
	b.WriteString("*Récapitulatif :*\n\n")
	fmt.Fprintf(&b, "Bulletins nuls : %d (%s%%)\n", d.BulletinsNuls, percent(d.BulletinsNuls, total))
	for _, p := range d.Parties {
		count := d.Votes[models.PartyKey(p)]
		fmt.Fprintf(&b, "%s : %d (%s%%)\n", p, count, percent(count, total))
	}
	fmt.Fprintf(&b, "\n*Total Votes : %d*\n", total)
	b.WriteString("\n*Valider ?*\n1- OUI\n2- NON (ou 0 pour annuler)")
	return b.String()
}

// percent is count/total with two decimals, or "0" when total is 0
func percent(count, total int) string {
	if total <= 0 {
		return "0"
	}
	return fmt.Sprintf("%.2f", float64(count)*100/float64(total))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
