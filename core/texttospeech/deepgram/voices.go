package deepgram

type deepgramVoice string

const (
	VoiceAsteria deepgramVoice = "aura-2-asteria-en"
	VoiceThalia  deepgramVoice = "aura-2-thalia-en"
	VoiceHelena  deepgramVoice = "aura-2-helena-en"
	VoiceApollo  deepgramVoice = "aura-2-apollo-en"
	VoiceOrion   deepgramVoice = "aura-2-orion-en"

	defaultVoice = VoiceThalia
)

func GetAvailableVoices() []deepgramVoice {
	return []deepgramVoice{VoiceAsteria, VoiceThalia, VoiceHelena, VoiceApollo, VoiceOrion}
}
