package scene

// Persona is the category of human subject placed in a scene.
// The zero value is PersonaRandom.
type Persona int

const (
	PersonaRandom Persona = iota
	PersonaMan
	PersonaWoman
	PersonaWomanHijabi
	PersonaChildBoy
	PersonaChildGirl
)

// Class gates which activity and clothing pools a persona may draw from.
type Class int

const (
	ClassAdultMale Class = iota
	ClassAdultFemaleUnveiled
	ClassAdultFemaleVeiled
	ClassChild
)

const RandomToken = "random"

type personaInfo struct {
	token       string
	description string
	pronoun     string
	class       Class
}

var personaTable = map[Persona]personaInfo{
	PersonaMan:         {token: "man", description: "A man", pronoun: "He", class: ClassAdultMale},
	PersonaWoman:       {token: "woman", description: "A woman", pronoun: "She", class: ClassAdultFemaleUnveiled},
	PersonaWomanHijabi: {token: "woman_hijabi", description: "A woman wearing a stylish hijab", pronoun: "She", class: ClassAdultFemaleVeiled},
	PersonaChildBoy:    {token: "child_boy", description: "A young boy", pronoun: "He", class: ClassChild},
	PersonaChildGirl:   {token: "child_girl", description: "A young girl", pronoun: "She", class: ClassChild},
}

// Personas lists the concrete personas in draw order.
var Personas = []Persona{
	PersonaMan,
	PersonaWoman,
	PersonaWomanHijabi,
	PersonaChildBoy,
	PersonaChildGirl,
}

// ParsePersona maps a selector token to a Persona. "random" and any token
// that is not an exact persona identifier both yield PersonaRandom.
func ParsePersona(token string) Persona {
	for _, p := range Personas {
		if personaTable[p].token == token {
			return p
		}
	}
	return PersonaRandom
}

// KnownPersona reports whether token is "random" or an exact persona identifier.
func KnownPersona(token string) bool {
	return token == RandomToken || ParsePersona(token) != PersonaRandom
}

func (p Persona) String() string {
	if info, ok := personaTable[p]; ok {
		return info.token
	}
	return RandomToken
}

// Description is the noun phrase used as the sentence subject.
// It is empty for PersonaRandom.
func (p Persona) Description() string { return personaTable[p].description }

func (p Persona) Pronoun() string { return personaTable[p].pronoun }

func (p Persona) Class() Class { return personaTable[p].class }

func (p Persona) IsRandom() bool {
	_, ok := personaTable[p]
	return !ok
}

func (c Class) String() string {
	switch c {
	case ClassAdultMale:
		return "adult_male"
	case ClassAdultFemaleUnveiled:
		return "adult_female_unveiled"
	case ClassAdultFemaleVeiled:
		return "adult_female_veiled"
	case ClassChild:
		return "child"
	default:
		return "unknown"
	}
}

// ShotType is the photographic framing of a scene.
// The zero value is ShotRandom.
type ShotType int

const (
	ShotRandom ShotType = iota
	ShotCloseUp
	ShotMedium
	ShotFullBody
	ShotEnvironmental
)

type shotInfo struct {
	token    string
	template string
}

var shotTable = map[ShotType]shotInfo{
	ShotCloseUp:       {token: "close-up", template: "A candid close-up shot focusing on their facial expression."},
	ShotMedium:        {token: "medium", template: "A candid medium shot, capturing from the waist up."},
	ShotFullBody:      {token: "full-body", template: "A candid full-body shot, showing their entire figure in the environment."},
	ShotEnvironmental: {token: "environmental", template: "A wide, environmental portrait where the person is a small but significant part of a larger scene."},
}

// ShotTypes lists the concrete shot types in draw order.
var ShotTypes = []ShotType{
	ShotCloseUp,
	ShotMedium,
	ShotFullBody,
	ShotEnvironmental,
}

// ParseShotType mirrors ParsePersona: unknown tokens fall back to ShotRandom.
func ParseShotType(token string) ShotType {
	for _, s := range ShotTypes {
		if shotTable[s].token == token {
			return s
		}
	}
	return ShotRandom
}

func KnownShotType(token string) bool {
	return token == RandomToken || ParseShotType(token) != ShotRandom
}

func (s ShotType) String() string {
	if info, ok := shotTable[s]; ok {
		return info.token
	}
	return RandomToken
}

// Template is the fixed framing sentence for the shot type.
func (s ShotType) Template() string { return shotTable[s].template }

func (s ShotType) IsRandom() bool {
	_, ok := shotTable[s]
	return !ok
}
