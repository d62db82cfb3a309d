package main

import (
	"github.com/veandco/go-sdl2/sdl"
)

const (
	sampleHz = 44100
	toneHz   = 440

	// toneChunk is one refresh frame worth of samples
	toneChunk = sampleHz / 60
)

// beeper plays a square wave while the sound timer is active. Samples
// are queued to the audio device instead of generated from a callback,
// which keeps cgo out of the picture.
type beeper struct {
	id   sdl.AudioDeviceID
	tone []byte
}

func newBeeper() (*beeper, error) {
	want := sdl.AudioSpec{
		Freq:     sampleHz,
		Format:   sdl.AUDIO_U8,
		Channels: 1,
		Samples:  512,
	}

	var have sdl.AudioSpec
	id, err := sdl.OpenAudioDevice("", false, &want, &have, 0)
	if err != nil {
		return nil, err
	}

	b := &beeper{
		id:   id,
		tone: make([]byte, toneChunk),
	}

	// square wave, half period high, half period low
	half := sampleHz / toneHz / 2
	for i := range b.tone {
		if (i/half)%2 == 0 {
			b.tone[i] = have.Silence + 32
		} else {
			b.tone[i] = have.Silence
		}
	}

	sdl.PauseAudioDevice(id, false)

	return b, nil
}

// update queues more of the tone while it is active, keeping the queue
// short so the tone cuts off promptly when the sound timer expires.
func (b *beeper) update(active bool) {
	if !active {
		return
	}

	if sdl.GetQueuedAudioSize(b.id) < uint32(len(b.tone))*2 {
		sdl.QueueAudio(b.id, b.tone)
	}
}

func (b *beeper) close() {
	sdl.CloseAudioDevice(b.id)
}
